package translator

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
)

// Google is a Provider backed by the Cloud Translation API.
type Google struct {
	client *translate.Client
}

// NewGoogle uses apiKey when set and Application Default Credentials otherwise.
func NewGoogle(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Google, error) {
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation client: %w", err)
	}
	return &Google{client: client}, nil
}

func (g *Google) Translate(ctx context.Context, text, target string) (string, error) {
	tag, err := language.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid target language %q: %w", target, err)
	}

	res, err := g.client.Translate(ctx, []string{text}, tag, &translate.Options{Format: translate.Text})
	if err != nil {
		return "", classify(err)
	}
	if len(res) == 0 {
		return "", errors.New("translation returned no results")
	}
	return res[0].Text, nil
}

func (g *Google) Languages(ctx context.Context) ([]models.Language, error) {
	langs, err := g.client.SupportedLanguages(ctx, language.English)
	if err != nil {
		return nil, classify(err)
	}

	out := make([]models.Language, 0, len(langs))
	for _, l := range langs {
		out = append(out, models.Language{Code: l.Tag.String(), Name: l.Name})
	}
	return out, nil
}

func (g *Google) Close() error {
	return g.client.Close()
}

// classify marks errors that will fail every call the same way as ErrUnavailable:
// rejected credentials, exhausted quota and an unreachable endpoint.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	var (
		opErr   *net.OpError
		dnsErr  *net.DNSError
		certErr *tls.CertificateVerificationError
	)
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.As(err, &certErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
