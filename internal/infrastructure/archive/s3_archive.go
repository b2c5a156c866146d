// Package archive stores issued invoice documents in S3-compatible object
// storage (AWS S3, MinIO, RustFS).
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	infraconfig "github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const contentTypeJSON = "application/json"

// S3Archive writes one JSON document per invoice under
// {prefix}/{tenantID}/{invoiceNumber}.json
type S3Archive struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	prefix            string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// Option configures an S3Archive
type Option func(*S3Archive)

// WithLogger sets the archive logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *S3Archive) {
		a.logger = logger
	}
}

// WithPresignExpiration sets how long download URLs stay valid
func WithPresignExpiration(d time.Duration) Option {
	return func(a *S3Archive) {
		a.presignExpiration = d
	}
}

// NewS3Archive creates an archive from configuration
func NewS3Archive(cfg *infraconfig.ArchiveConfig, opts ...Option) (*S3Archive, error) {
	if cfg == nil {
		return nil, errors.New("archive configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("archive access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("archive secret key is required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
		// S3-compatible stores reject the trailing checksums newer SDKs send by default
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	a := &S3Archive{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.presignExpiration <= 0 {
		a.presignExpiration = 15 * time.Minute
	}
	return a, nil
}

func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid archive endpoint: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid archive endpoint %q: missing host", endpoint)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (a *S3Archive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ObjectKey returns the key an invoice is archived under
func (a *S3Archive) ObjectKey(tenantID uuid.UUID, invoiceNumber string) string {
	return path.Join(a.prefix, tenantID.String(), invoiceNumber+".json")
}

// ArchiveInvoice uploads the invoice document, replacing any earlier copy
func (a *S3Archive) ArchiveInvoice(ctx context.Context, inv *finance.Invoice) error {
	if inv == nil {
		return errors.New("invoice is required")
	}
	if inv.InvoiceNumber == "" {
		return errors.New("invoice number is required")
	}

	body, err := json.Marshal(newInvoiceDocument(inv))
	if err != nil {
		return fmt.Errorf("failed to encode invoice: %w", err)
	}

	key := a.ObjectKey(inv.TenantID, inv.InvoiceNumber)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentTypeJSON),
		Metadata: map[string]string{
			"tenant-id":  inv.TenantID.String(),
			"invoice-id": inv.ID.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload invoice %s: %w", inv.InvoiceNumber, err)
	}

	a.logger.Debug("Invoice archived",
		zap.String("bucket", a.bucket),
		zap.String("key", key),
	)
	return nil
}

// DownloadURL returns a presigned GET URL for an archived invoice
func (a *S3Archive) DownloadURL(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (string, time.Time, error) {
	if invoiceNumber == "" {
		return "", time.Time{}, errors.New("invoice number is required")
	}
	req, err := a.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.ObjectKey(tenantID, invoiceNumber)),
	}, s3.WithPresignExpires(a.presignExpiration))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate download URL: %w", err)
	}
	return req.URL, time.Now().Add(a.presignExpiration), nil
}

// Exists reports whether an invoice has been archived
func (a *S3Archive) Exists(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.ObjectKey(tenantID, invoiceNumber)),
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check archived invoice: %w", err)
	}
	return true, nil
}

// Bucket returns the bucket name
func (a *S3Archive) Bucket() string {
	return a.bucket
}

// invoiceDocument is the archived JSON form of an invoice
type invoiceDocument struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	InvoiceNumber      string          `json:"invoice_number"`
	LoadIDs            []uuid.UUID     `json:"load_ids"`
	CustomerName       string          `json:"customer_name"`
	BrokerID           *uuid.UUID      `json:"broker_id,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Status             string          `json:"status"`
	DueDate            *time.Time      `json:"due_date,omitempty"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	IsFactored         bool            `json:"is_factored"`
	FactoringCompanyID *uuid.UUID      `json:"factoring_company_id,omitempty"`
	FactoringFee       decimal.Decimal `json:"factoring_fee"`
	FactoredAmount     decimal.Decimal `json:"factored_amount"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	ArchivedAt         time.Time       `json:"archived_at"`
}

func newInvoiceDocument(inv *finance.Invoice) invoiceDocument {
	return invoiceDocument{
		ID:                 inv.ID,
		TenantID:           inv.TenantID,
		InvoiceNumber:      inv.InvoiceNumber,
		LoadIDs:            []uuid.UUID(inv.LoadIDs),
		CustomerName:       inv.CustomerName,
		BrokerID:           inv.BrokerID,
		Amount:             inv.Amount,
		Status:             string(inv.Status),
		DueDate:            inv.DueDate,
		PaidAt:             inv.PaidAt,
		IsFactored:         inv.IsFactored,
		FactoringCompanyID: inv.FactoringCompanyID,
		FactoringFee:       inv.FactoringFee,
		FactoredAmount:     inv.FactoredAmount,
		Notes:              inv.Notes,
		CreatedAt:          inv.CreatedAt,
		ArchivedAt:         time.Now().UTC(),
	}
}
