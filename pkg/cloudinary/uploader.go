package cloudinary

import (
	"bytes"
	"context"
	"errors"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryUploader struct {
	cld *cld.Cloudinary
}

func NewCloudinaryUploader(cloud *cld.Cloudinary) *CloudinaryUploader {
	return &CloudinaryUploader{cld: cloud}
}

// UploadBytes stores b as an image under folder/filename and returns its https URL.
func (u *CloudinaryUploader) UploadBytes(
	ctx context.Context,
	folder string,
	filename string,
	b []byte,
) (string, error) {
	if len(b) == 0 {
		return "", errors.New("empty upload")
	}

	res, err := u.cld.Upload.Upload(
		ctx,
		bytes.NewReader(b),
		uploader.UploadParams{
			Folder:         folder,
			PublicID:       filename,
			ResourceType:   "image",
			UniqueFilename: api.Bool(false),
			Overwrite:      api.Bool(false),
		},
	)
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", errors.New("cloudinary: " + res.Error.Message)
	}

	return res.SecureURL, nil
}
