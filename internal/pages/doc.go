// Package pages holds the page objects for the signup, onboarding and signin
// screens.
//
// Each page object builds its locator bundle once, in the constructor, from
// the live playwright.Page. Locators are deferred queries: they are resolved
// against whatever the tab renders at the moment an action runs, so bundles
// can be created before the target screen has loaded.
//
// Action primitives perform one interaction each and rely on playwright's
// actionability wait; their errors are returned unchanged apart from wrapping.
// Orchestrators sequence primitives into a full wizard traversal.
package pages
