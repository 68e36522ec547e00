// Package remote classifies digits through an HTTP model server.
//
// Requests are signed like the MyScript batch API: an HMAC-SHA512 of the
// body keyed with the application key and the HMAC key, sent in the
// applicationKey and hmac headers. An optional JWT is sent as a bearer
// token and checked for expiry before use.
package remote

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/pkg/errors"

	"github.com/juruen/inkmath/classifier"
	"github.com/juruen/inkmath/log"
)

const (
	DefaultTimeout = 10 * time.Second
	pixelFormat    = "gray8"
)

// Config holds the model server settings
type Config struct {
	URL            string        `yaml:"url"`
	ApplicationKey string        `yaml:"application_key"`
	HmacKey        string        `yaml:"hmac_key"`
	Token          string        `yaml:"token"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Client is safe for concurrent use
type Client struct {
	cfg    Config
	client *http.Client
}

// New validates the configuration. An expired token is an init error:
// the recognizer then reports itself unavailable instead of failing
// every cluster.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.Wrap(classifier.ErrInit, "remote classifier url is required")
	}
	if cfg.Token != "" {
		if err := checkToken(cfg.Token); err != nil {
			return nil, errors.Wrapf(classifier.ErrInit, "token: %v", err)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func checkToken(token string) error {
	claims := jwt.StandardClaims{}
	parser := jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return err
	}
	return claims.Valid()
}

func sign(key, hmackey string, data []byte) string {
	mac := hmac.New(sha512.New, []byte(key+hmackey))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) Classify(ctx context.Context, img *image.Gray) (classifier.Prediction, error) {
	if err := classifier.CheckInput(img); err != nil {
		return classifier.Prediction{}, err
	}

	data, err := json.Marshal(ClassifyRequest{
		Width:  classifier.InputSize,
		Height: classifier.InputSize,
		Format: pixelFormat,
		Pixels: classifier.Pixels(img),
	})
	if err != nil {
		return classifier.Prediction{}, errors.Wrapf(classifier.ErrClassification, "encode request: %v", err)
	}

	body, err := c.send(ctx, data)
	if err != nil {
		return classifier.Prediction{}, err
	}

	var res ClassifyResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return classifier.Prediction{}, errors.Wrapf(classifier.ErrClassification, "decode response: %v", err)
	}
	if res.Error != "" {
		return classifier.Prediction{}, errors.Wrapf(classifier.ErrClassification, "server: %s", res.Error)
	}
	if res.Label == nil {
		return classifier.Prediction{}, errors.Wrap(classifier.ErrClassification, "response has no label")
	}

	p := classifier.Prediction{Label: *res.Label, Probabilities: make(map[int]float64, len(res.Probabilities))}
	for k, v := range res.Probabilities {
		digit, err := strconv.Atoi(k)
		if err != nil {
			log.Trace.Printf("remote: ignoring probability key %q", k)
			continue
		}
		p.Probabilities[digit] = v
	}
	return p, nil
}

func (c *Client) send(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(classifier.ErrClassification, "failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.ApplicationKey != "" {
		req.Header.Set("applicationKey", c.cfg.ApplicationKey)
		req.Header.Set("hmac", sign(c.cfg.ApplicationKey, c.cfg.HmacKey, data))
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(classifier.ErrClassification, "failed to send request: %v", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrapf(classifier.ErrClassification, "failed to read response: %v", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, errors.Wrap(classifier.ErrClassification, fmt.Sprintf("API error: Status %d, Response: %s", res.StatusCode, string(body)))
	}

	return body, nil
}
