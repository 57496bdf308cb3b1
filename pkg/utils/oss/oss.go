// Package oss wraps the S3-compatible object storage used as an alternative
// dataset source.
package oss

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const (
	OSS_ENDPOINT          = "OSS_ENDPOINT"
	AWS_ACCESS_KEY_ID     = "AWS_ACCESS_KEY_ID"
	AWS_SECRET_ACCESS_KEY = "AWS_SECRET_ACCESS_KEY"
)

type Config struct {
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"accessKeyID" yaml:"accessKeyID"`
	AccessKeySecret string `json:"accessKeySecret" yaml:"accessKeySecret"`
}

// ConfigFromEnv reads the storage credentials from the environment.
func ConfigFromEnv() *Config {
	return &Config{
		Endpoint:        os.Getenv(OSS_ENDPOINT),
		AccessKeyID:     os.Getenv(AWS_ACCESS_KEY_ID),
		AccessKeySecret: os.Getenv(AWS_SECRET_ACCESS_KEY),
	}
}

type AbsoluteURI struct {
	uri string
}

func NewAbsoluteURI(uri string) *AbsoluteURI {
	return &AbsoluteURI{uri: uri}
}

func (oau *AbsoluteURI) GetBucket() string {
	u, _ := url.Parse(oau.uri)
	return u.Host
}

func (oau *AbsoluteURI) GetKey() string {
	u, _ := url.Parse(oau.uri)
	return strings.TrimLeft(u.Path, "/")
}

type S3Base struct {
	S3Conf *Config

	s3Client *s3.S3
}

func NewS3Base(s3Conf *Config) *S3Base {
	return &S3Base{
		S3Conf:   s3Conf,
		s3Client: s3Client(s3Conf.Endpoint, s3Conf.AccessKeyID, s3Conf.AccessKeySecret),
	}
}

func s3Client(endpoint, accessKey, secretKey string) *s3.S3 {
	config := &aws.Config{
		Endpoint:         &endpoint,
		Region:           aws.String("dummy"),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
	}

	sess := session.Must(session.NewSession())
	return s3.New(sess, config)
}

// Download fetches src (an s3:// URI) into dst.
func (s3b *S3Base) Download(dst io.WriterAt, src string) error {
	downloader := s3manager.NewDownloaderWithClient(s3b.s3Client)
	uri := NewAbsoluteURI(src)

	bucket := uri.GetBucket()
	key := uri.GetKey()
	log.Infof("downloading s3 object, bucket: %s, key: %s", bucket, key)

	n, err := downloader.Download(dst, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", src, err)
	}
	log.Infof("downloaded %d bytes from %s", n, src)
	return nil
}
