package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"payfastBack/internal/models"
)

// S3InvoiceStore keeps invoices as <prefix>/<no>.pdf and <prefix>/<no>.json objects.
type S3InvoiceStore struct {
	client     s3iface.S3API
	bucket     string
	prefix     string
	publicBase string
}

func NewS3InvoiceStore(client s3iface.S3API, bucket, prefix, publicBase string) *S3InvoiceStore {
	return &S3InvoiceStore{
		client:     client,
		bucket:     bucket,
		prefix:     strings.Trim(prefix, "/"),
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

func (s *S3InvoiceStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3InvoiceStore) Save(ctx context.Context, inv models.Invoice, document []byte) (models.InvoiceLocations, error) {
	if err := ValidateInvoiceNo(inv.InvoiceNo); err != nil {
		return models.InvoiceLocations{}, err
	}
	record, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return models.InvoiceLocations{}, fmt.Errorf("marshal invoice: %w", err)
	}

	docKey := s.key(documentName(inv.InvoiceNo))
	recKey := s.key(recordName(inv.InvoiceNo))
	if err := s.put(ctx, docKey, document, "application/pdf"); err != nil {
		return models.InvoiceLocations{}, err
	}
	if err := s.put(ctx, recKey, record, "application/json"); err != nil {
		return models.InvoiceLocations{}, err
	}

	loc := models.InvoiceLocations{
		RecordPath:   "s3://" + s.bucket + "/" + recKey,
		DocumentPath: "s3://" + s.bucket + "/" + docKey,
		FileURL:      "/" + docKey,
	}
	if s.publicBase != "" {
		loc.FileURL = s.publicBase + "/" + docKey
	}
	return loc, nil
}

func (s *S3InvoiceStore) Load(ctx context.Context, invoiceNo string) (models.Invoice, error) {
	data, err := s.get(ctx, invoiceNo, recordName)
	if err != nil {
		return models.Invoice{}, err
	}
	var inv models.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return models.Invoice{}, fmt.Errorf("decode invoice %s: %w", invoiceNo, err)
	}
	return inv, nil
}

func (s *S3InvoiceStore) LoadDocument(ctx context.Context, invoiceNo string) ([]byte, error) {
	return s.get(ctx, invoiceNo, documentName)
}

func (s *S3InvoiceStore) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("unable to upload %s to S3: %w", key, err)
	}
	return nil
}

func (s *S3InvoiceStore) get(ctx context.Context, invoiceNo string, name func(string) string) ([]byte, error) {
	if err := ValidateInvoiceNo(invoiceNo); err != nil {
		return nil, err
	}
	key := s.key(name(invoiceNo))
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("unable to fetch %s from S3: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s from S3: %w", key, err)
	}
	return data, nil
}
