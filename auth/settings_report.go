package auth

import "strings"

// Settings is the configuration a login depends on.
type Settings struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	JWTSecret    string
	FrontendURL  string
	State        string
	Scopes       []string
}

// SettingCheck is the status of one setting. Secrets report presence and
// length only.
type SettingCheck struct {
	Value  string `json:"value"`
	Length int    `json:"length,omitempty"`
	Valid  bool   `json:"valid"`
	Issue  string `json:"issue,omitempty"`
}

type SettingsReport struct {
	Status string `json:"status"`
	Valid  bool   `json:"valid"`
	Config struct {
		ClientID     SettingCheck `json:"clientId"`
		ClientSecret SettingCheck `json:"clientSecret"`
		RedirectURI  SettingCheck `json:"redirectUri"`
		JWTSecret    SettingCheck `json:"jwtSecret"`
		FrontendURL  SettingCheck `json:"frontendUrl"`
		State        SettingCheck `json:"state"`
		Scopes       SettingCheck `json:"scopes"`
	} `json:"config"`
	Troubleshooting []string `json:"troubleshooting"`
}

var troubleshooting = []string{
	"1. Ensure CLIENT_ID is a valid Azure App Registration ID (36 char UUID)",
	"2. Ensure CLIENT_SECRET is current (they expire)",
	"3. Check redirect URI matches exactly in Azure Portal",
	"4. Verify app allows personal Microsoft accounts",
	"5. Check API permissions are granted (Mail.Read, Mail.ReadWrite, Mail.Send)",
}

// CheckSettings validates every setting and never echoes a secret.
func (v *Validator) CheckSettings(s Settings) *SettingsReport {
	r := &SettingsReport{Troubleshooting: troubleshooting}
	r.Config.ClientID = secretCheck(s.ClientID, v.ValidateClientID(s.ClientID))
	r.Config.ClientSecret = secretCheck(s.ClientSecret, v.ValidateSecret("client secret", s.ClientSecret))
	r.Config.RedirectURI = valueCheck(s.RedirectURI, ValidateRedirectURI(s.RedirectURI))
	r.Config.JWTSecret = secretCheck(s.JWTSecret, v.ValidateSecret("jwt secret", s.JWTSecret))
	r.Config.FrontendURL = valueCheck(s.FrontendURL, v.ValidateFrontendURL(s.FrontendURL))
	r.Config.State = valueCheck(s.State, ValidateState(s.State))
	scopes := strings.Join(s.Scopes, " ")
	r.Config.Scopes = valueCheck(scopes, ValidateScope(scopes))

	r.Valid = r.Config.ClientID.Valid &&
		r.Config.ClientSecret.Valid &&
		r.Config.RedirectURI.Valid &&
		r.Config.JWTSecret.Valid &&
		r.Config.FrontendURL.Valid &&
		r.Config.State.Valid &&
		r.Config.Scopes.Valid
	r.Status = "✗ Configuration issues"
	if r.Valid {
		r.Status = "✓ Configuration valid"
	}
	return r
}

func secretCheck(secret string, err error) SettingCheck {
	c := SettingCheck{Value: "✗ Missing", Length: len(secret), Valid: err == nil}
	if secret != "" {
		c.Value = "✓ Set"
	}
	if err != nil {
		c.Issue = err.Error()
	}
	return c
}

func valueCheck(value string, err error) SettingCheck {
	c := SettingCheck{Value: value, Valid: err == nil}
	if value == "" {
		c.Value = "✗ Missing"
	}
	if err != nil {
		c.Issue = err.Error()
	}
	return c
}
