// Package miniowr provides a MinIO implementation of the blobstore.Store interface.
package miniowr

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/code19m/errx"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rise-and-shine/projectdocs/blobstore"
	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/observability/logger"
)

// Client implements blobstore.Store using MinIO.
type Client struct {
	client *minio.Client
	cfg    Config
	log    logger.Logger
}

var _ blobstore.Store = (*Client)(nil)

// New creates a new MinIO blob store client.
// An unconfigured Config yields a client whose IsConfigured reports false.
func New(cfg Config, log logger.Logger) (*Client, error) {
	c := &Client{cfg: cfg, log: log.Named("blobstore.minio")}
	if !cfg.configured() {
		c.log.Warn("blob store is not configured, uploads will be rejected")
		return c, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errx.Wrap(err, errx.WithCode(docerr.CodeConfiguration))
	}
	c.client = client

	return c, nil
}

// IsConfigured reports whether uploads can be attempted.
func (c *Client) IsConfigured() bool {
	return c.client != nil
}

// Upload stores data under a unique key in opts.Folder and returns its URL.
func (c *Client) Upload(ctx context.Context, data []byte, opts blobstore.UploadOptions) (*blobstore.Blob, error) {
	if !c.IsConfigured() {
		return nil, errx.New(
			"blob store is not configured",
			errx.WithCode(docerr.CodeConfiguration),
			errx.WithType(errx.T_Internal),
		)
	}

	key := objectKey(opts.Folder, opts.Filename)
	contentType := resolveContentType(data, opts)

	info, err := c.client.PutObject(ctx, c.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("inline; filename=%q", opts.Filename),
	})
	if err != nil {
		return nil, errx.Wrap(
			err,
			errx.WithCode(docerr.CodeUploadFailed),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"key": key, "resource_type": string(opts.ResourceType)}),
		)
	}

	blobURL, err := c.publicURL(ctx, key)
	if err != nil {
		// the object exists but cannot be referenced; do not leak it
		c.Delete(context.WithoutCancel(ctx), key)
		return nil, errx.Wrap(err, errx.WithCode(docerr.CodeUploadFailed), errx.WithType(errx.T_Internal))
	}

	return &blobstore.Blob{
		ID:          key,
		URL:         blobURL,
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

// Delete removes the object with the given key. Failures are logged only.
func (c *Client) Delete(ctx context.Context, id string) {
	if !c.IsConfigured() || id == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.DeleteTimeout)
	defer cancel()

	err := c.client.RemoveObject(ctx, c.cfg.Bucket, id, minio.RemoveObjectOptions{})
	if err != nil {
		c.log.With("blob_id", id).Warnx(errx.Wrap(err))
		return
	}
	c.log.With("blob_id", id).Debug("blob deleted")
}

func (c *Client) publicURL(ctx context.Context, key string) (string, error) {
	if c.cfg.PublicBaseURL != "" {
		return joinPublicURL(c.cfg.PublicBaseURL, key), nil
	}

	u, err := c.client.PresignedGetObject(ctx, c.cfg.Bucket, key, c.cfg.PresignExpiry, url.Values{})
	if err != nil {
		return "", errx.Wrap(err)
	}
	return u.String(), nil
}

func joinPublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + (&url.URL{Path: key}).EscapedPath()
}

// objectKey builds "{folder}/{base}_{uuid}{ext}" so repeated uploads never collide.
func objectKey(folder, filename string) string {
	name := filepath.Base(filename)
	if name == "." || name == "/" {
		name = ""
	}
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "file"
	}
	return path.Join(folder, fmt.Sprintf("%s_%s%s", base, uuid.NewString(), ext))
}

// resolveContentType keeps the declared type for raw uploads and sniffs the bytes otherwise.
func resolveContentType(data []byte, opts blobstore.UploadOptions) string {
	if opts.ResourceType == blobstore.ResourceRaw {
		if opts.ContentType != "" {
			return opts.ContentType
		}
		return blobstore.ContentTypeOctetStream
	}
	return mimetype.Detect(data).String()
}
