package hosting

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"promoagent/internal/config"
)

type uploadFunc func(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)

type Cloudinary struct {
	upload uploadFunc
	folder string
}

func NewCloudinary(cfg config.CloudinaryConfig) (*Cloudinary, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cfg.URL != "" {
		cld, err = cloudinary.NewFromURL(cfg.URL)
	} else {
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	}
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Cloudinary{
		upload: cld.Upload.Upload,
		folder: cfg.Folder,
	}, nil
}

func (c *Cloudinary) Name() string {
	return config.HostingCloudinary
}

// Upload sends the data URL as-is and lets Cloudinary pick the resource type.
func (c *Cloudinary) Upload(ctx context.Context, req Request) (string, error) {
	params := uploader.UploadParams{
		ResourceType: "auto",
		Folder:       c.folder,
	}

	res, err := c.upload(ctx, req.DataURL, params)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res == nil {
		return "", errors.New("cloudinary upload: empty response")
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary upload: no secure url returned")
	}
	return res.SecureURL, nil
}
