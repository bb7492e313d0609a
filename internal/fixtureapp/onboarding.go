package fixtureapp

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medara-io/medara-e2e/internal/models"
)

// Onboarding control kinds, compared by name in the step template.
const (
	controlRadio    = "radio"
	controlCheckbox = "checkbox"
	controlText     = "text"
)

// onboardingStep is one screen of the onboarding wizard.
type onboardingStep struct {
	Number   int
	Control  string
	Question string
	Options  []choice
}

// onboardingStepFor returns step n (1-based) as shown to accountType. The
// first question depends on which side of the marketplace the user is on.
func onboardingStepFor(n int, accountType models.AccountType) onboardingStep {
	switch n {
	case 1:
		if accountType == models.AccountEmployer {
			return onboardingStep{Number: 1, Control: controlRadio,
				Question: "How large is your company?",
				Options: []choice{
					{"startup", "Startup"},
					{"small", "Small business"},
					{"enterprise", "Enterprise"},
				}}
		}
		return onboardingStep{Number: 1, Control: controlRadio,
			Question: "Which skills do you offer?",
			Options: []choice{
				{"design", "Design"},
				{"development", "Development"},
				{"writing", "Writing"},
			}}
	case 2:
		return onboardingStep{Number: 2, Control: controlCheckbox,
			Question: "What are your goals?",
			Options: []choice{
				{"hire", "Hire faster"},
				{"network", "Grow my network"},
				{"projects", "Find new projects"},
			}}
	default:
		return onboardingStep{Number: OnboardingSteps, Control: controlText,
			Question: "Anything else we should know?"}
	}
}

func (a *App) handleOnboardingIntro(c *gin.Context) {
	acct := currentAccount(c)
	if acct.OnboardingComplete() {
		c.Redirect(http.StatusSeeOther, "/portal/dashboard")
		return
	}
	a.renderer.HTML(c, http.StatusOK, "onboarding_intro.html", gin.H{
		"account": acct.Profile,
		"resume":  acct.OnboardingProgress > 0,
	})
}

func (a *App) handleOnboardingStep(c *gin.Context) {
	acct := currentAccount(c)
	if acct.OnboardingComplete() {
		c.Redirect(http.StatusSeeOther, "/portal/dashboard")
		return
	}
	a.renderOnboardingStep(c, http.StatusOK, acct, "")
}

func (a *App) renderOnboardingStep(c *gin.Context, code int, acct Account, errMsg string) {
	step := onboardingStepFor(acct.OnboardingProgress+1, acct.Profile.AccountType)
	a.renderer.HTML(c, code, "onboarding_step.html", gin.H{
		"step":  step,
		"total": OnboardingSteps,
		"last":  step.Number == OnboardingSteps,
		"error": errMsg,
	})
}

// handleOnboardingAnswer stores the answer for the current step. A post for
// any other step, such as one from a stale tab, is sent back to the current
// step.
func (a *App) handleOnboardingAnswer(c *gin.Context) {
	acct := currentAccount(c)
	n, err := strconv.Atoi(c.PostForm("step"))
	if err != nil || n != acct.OnboardingProgress+1 {
		c.Redirect(http.StatusSeeOther, "/portal/onboarding/step")
		return
	}

	step := onboardingStepFor(n, acct.Profile.AccountType)
	var answers []string
	switch step.Control {
	case controlRadio:
		if v := c.PostForm("answer"); v != "" {
			answers = []string{v}
		}
	case controlCheckbox:
		answers = c.PostFormArray("answer")
	case controlText:
		if v := strings.TrimSpace(c.PostForm("answer")); v != "" {
			answers = []string{v}
		}
	}
	if len(answers) == 0 {
		msg := "Please select an option"
		if step.Control == controlText {
			msg = "This field is required"
		}
		a.renderOnboardingStep(c, http.StatusUnprocessableEntity, acct, msg)
		return
	}

	progress, ok := a.store.answerStep(acct.Profile.Email, n, answers)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/portal/onboarding/step")
		return
	}
	a.logger.Debug("onboarding step answered",
		zap.String("email", acct.Profile.Email),
		zap.Int("step", n))

	if progress >= OnboardingSteps {
		a.metrics.OnboardingCompletions.Inc()
		c.Redirect(http.StatusSeeOther, "/portal/dashboard")
		return
	}
	c.Redirect(http.StatusSeeOther, "/portal/onboarding/step")
}

func (a *App) handleDashboard(c *gin.Context) {
	acct := currentAccount(c)
	a.renderer.HTML(c, http.StatusOK, "dashboard.html", gin.H{
		"account":  acct.Profile,
		"complete": acct.OnboardingComplete(),
	})
}
