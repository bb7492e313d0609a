package models

const defaultTestPassword = "SecureTest123!"

// Employer returns a fresh employer profile with a unique email.
func Employer() AccountProfile {
	return AccountProfile{
		AccountType:     AccountEmployer,
		PrimaryRole:     "Business Owner",
		Industries:      []string{"Healthcare"},
		FirstName:       "Test",
		LastName:        "Employer",
		Email:           GenerateTestEmail(),
		Password:        defaultTestPassword,
		ConfirmPassword: defaultTestPassword,
	}
}

// Freelancer returns a fresh freelancer profile with a unique email.
func Freelancer() AccountProfile {
	return AccountProfile{
		AccountType:     AccountFreelancer,
		PrimaryRole:     "Designer",
		Industries:      []string{"Technology"},
		FirstName:       "Test",
		LastName:        "Freelancer",
		Email:           GenerateTestEmail(),
		Password:        defaultTestPassword,
		ConfirmPassword: defaultTestPassword,
	}
}

// OAuthUser returns a freelancer profile without credentials, as produced by
// an identity-provider signup.
func OAuthUser() AccountProfile {
	return AccountProfile{
		AccountType: AccountFreelancer,
		PrimaryRole: "Developer",
		Industries:  []string{"Software"},
		FirstName:   "OAuth",
		LastName:    "User",
		Email:       GenerateTestEmail(),
	}
}

// WithPasswords returns a copy of p with the given password pair.
func (p AccountProfile) WithPasswords(password, confirm string) AccountProfile {
	p.Industries = append([]string(nil), p.Industries...)
	p.Password = password
	p.ConfirmPassword = confirm
	return p
}

// WithEmail returns a copy of p with a different email.
func (p AccountProfile) WithEmail(email string) AccountProfile {
	p.Industries = append([]string(nil), p.Industries...)
	p.Email = email
	return p
}
