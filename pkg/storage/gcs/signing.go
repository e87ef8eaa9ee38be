package gcs

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignedReadURL returns a V2 signed GET URL for object valid for ttl.
func (c *Client) SignedReadURL(bucket, object string, ttl time.Duration) (string, error) {
	if !c.CanSign() {
		return "", errors.New("signed urls require service account credentials")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if bucket == "" {
		return "", errors.New("bucket is required")
	}
	if object == "" {
		return "", errors.New("object name is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}

	expires := strconv.FormatInt(time.Now().Add(ttl).Unix(), 10)
	resource := "/" + bucket + "/" + object
	stringToSign := "GET\n\n\n" + expires + "\n" + resource

	sig, err := jwt.SigningMethodRS256.Sign(stringToSign, c.serviceAccount.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing url: %w", err)
	}

	u := &url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: resource}
	q := url.Values{}
	q.Set("GoogleAccessId", c.serviceAccount.clientEmail)
	q.Set("Expires", expires)
	q.Set("Signature", base64.StdEncoding.EncodeToString(sig))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
