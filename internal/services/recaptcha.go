package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RecaptchaVerifier checks signup tokens against Google's siteverify endpoint.
type RecaptchaVerifier struct {
	Secret string
	// Hostname, when set, must match the hostname Google reports for the token.
	Hostname   string
	HTTPClient *http.Client
	Endpoint   string
}

type recaptchaVerifyResponse struct {
	Success    bool      `json:"success"`
	ChallengeT time.Time `json:"challenge_ts"`
	Hostname   string    `json:"hostname"`
	ErrorCodes []string  `json:"error-codes"`
}

func NewRecaptchaVerifier(secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		Secret:     strings.TrimSpace(secret),
		Endpoint:   "https://www.google.com/recaptcha/api/siteverify",
		HTTPClient: &http.Client{Timeout: integrationTimeout},
	}
}

// Verify returns (ok, reason, error). A rejected token is not an error; the
// reason carries Google's error codes or a local check that failed.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token string, remoteIP string) (bool, string, error) {
	if v == nil || v.Secret == "" {
		return false, "verifier_not_configured", nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false, "missing_token", nil
	}

	form := url.Values{"secret": {v.Secret}, "response": {token}}
	if ip := strings.TrimSpace(remoteIP); ip != "" {
		form.Set("remoteip", ip)
	}

	resp, err := postIntegration(ctx, v.HTTPClient, v.Endpoint, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), nil)
	if err != nil {
		return false, "", fmt.Errorf("recaptcha: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, "", fmt.Errorf("recaptcha: siteverify http %d", resp.StatusCode)
	}

	var out recaptchaVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, "", fmt.Errorf("recaptcha: decode: %w", err)
	}

	switch {
	case !out.Success && len(out.ErrorCodes) > 0:
		return false, strings.Join(out.ErrorCodes, ","), nil
	case !out.Success:
		return false, "verification_failed", nil
	case v.Hostname != "" && !strings.EqualFold(out.Hostname, v.Hostname):
		return false, "hostname_mismatch", nil
	}
	return true, "", nil
}
