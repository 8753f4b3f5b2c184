package extractor

import (
	"context"
	"fmt"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
)

// DocumentAI runs OCR through a Google Cloud Document AI processor.
type DocumentAI struct {
	client    *documentai.DocumentProcessorClient
	processor string
	logger    *utils.Logger
}

func NewDocumentAI(ctx context.Context, projectID, location, processorID string, logger *utils.Logger, opts ...option.ClientOption) (*DocumentAI, error) {
	if projectID == "" || processorID == "" {
		return nil, ErrOCRUnavailable
	}

	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	opts = append([]option.ClientOption{option.WithEndpoint(endpoint)}, opts...)

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}

	return &DocumentAI{
		client:    client,
		processor: fmt.Sprintf("projects/%s/locations/%s/processors/%s", projectID, location, processorID),
		logger:    logger,
	}, nil
}

func (d *DocumentAI) Process(ctx context.Context, content []byte, mimeType string) (string, error) {
	req := &documentaipb.ProcessRequest{
		Name: d.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
	}

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return "", fmt.Errorf("document AI processing failed: %w", err)
	}

	text := resp.GetDocument().GetText()
	if strings.TrimSpace(text) == "" {
		return "", ErrOCRNoText
	}

	d.logger.Debug("Document AI OCR completed",
		"mime_type", mimeType,
		"pages", len(resp.GetDocument().GetPages()),
		"text_length", len(text))

	return text, nil
}

func (d *DocumentAI) Close() error {
	return d.client.Close()
}
