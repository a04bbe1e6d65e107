package tokens

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/doyensec/safeurl"

	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
)

// PluginVerifier confirms that the companion plugin is installed and active
// on a candidate site before a token for that site is persisted.
type PluginVerifier interface {
	VerifyPlugin(ctx context.Context, siteURL string) error
}

const verifyPluginPath = "/wp-json/csb/v1/verify-plugin"

// WordpressVerifier calls the plugin's verification endpoint over an
// SSRF-guarded HTTP client. The site URL is user-supplied, so requests to
// private, loopback and link-local address space are refused at dial time.
type WordpressVerifier struct {
	client *http.Client
}

// NewWordpressVerifier builds a verifier with the given request timeout.
func NewWordpressVerifier(timeout time.Duration) *WordpressVerifier {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	return &WordpressVerifier{client: safeurl.Client(config).Client}
}

func (v *WordpressVerifier) VerifyPlugin(ctx context.Context, siteURL string) error {
	if !strings.HasPrefix(siteURL, "http://") && !strings.HasPrefix(siteURL, "https://") {
		siteURL = "https://" + siteURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(siteURL, "/")+verifyPluginPath, nil)
	if err != nil {
		return apperror.Wrap(apperror.KindValidation, "Invalid WordPress URL!", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return apperror.Wrap(apperror.KindUpstreamTimeout, "WordPress site did not respond in time", err)
		}
		return apperror.Wrap(apperror.KindVerificationFailed, "Error verifying WordPress plugin", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperror.New(apperror.KindVerificationFailed, "Failed to verify CSB plugin on the given WordPress website.")
	}

	var body struct {
		WPVerification bool `json:"wp_verification"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return apperror.Wrap(apperror.KindVerificationFailed, "Unexpected verification response", err)
	}
	if !body.WPVerification {
		return apperror.New(apperror.KindVerificationFailed, "Verification failed: plugin not installed or not active.")
	}
	return nil
}
