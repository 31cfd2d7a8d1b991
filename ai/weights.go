package ai

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ResolveWeights makes sure a weights path is usable before it is handed to
// the model server. s3:// URIs are downloaded to a local cache dir and the
// local path is returned; plain paths are checked for existence. A missing
// object or file is a model error.
func ResolveWeights(path string) (string, error) {
	if strings.HasPrefix(path, "s3://") {
		return fetchFromS3(path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrapf(ErrModel, "weights file %v: %v", path, err)
	}
	return path, nil
}

func fetchFromS3(uri string) (string, error) {
	bucket, key, err := splitS3URI(uri)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(os.TempDir(), "solobass-weights", filepath.Base(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0777); err != nil {
		return "", errors.Wrapf(ErrModel, "creating weights cache dir: %v", err)
	}

	sess, err := session.NewSession()
	if err != nil {
		return "", errors.Wrapf(ErrModel, "creating AWS session: %v", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrapf(ErrModel, "creating %v: %v", dest, err)
	}
	defer f.Close()

	downloader := s3manager.NewDownloader(sess)
	n, err := downloader.Download(f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		os.Remove(dest)
		return "", errors.Wrapf(ErrModel, "downloading %v: %v", uri, err)
	}

	log.WithFields(log.Fields{
		"function": "ai.fetchFromS3",
	}).Infof("Downloaded %d bytes of weights to %v", n, dest)
	return dest, nil
}

func splitS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Wrapf(ErrModel, "malformed s3 uri %v", uri)
	}
	return parts[0], parts[1], nil
}
