// Package salesforce provides JWT-authenticated REST API access to Salesforce
// and converts SObject records into the line-oriented record text format.
package salesforce

import (
	"context"
	"fmt"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the Salesforce API operations used by the record tools.
type Client interface {
	Query(ctx context.Context, soql string, out any) error
	InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error)
	UpdateOne(ctx context.Context, sObjectName string, id string, fields map[string]any) error
	DeleteOne(ctx context.Context, sObjectName string, id string) error
	DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error)
}

// SObjectField is one field of a describe response. Updateable fields are
// the ones the update tool may send.
type SObjectField struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	Length     int    `json:"length"`
	Updateable bool   `json:"updateable"`
}

// SObjectDescription is the subset of an SObject describe used to explain an
// object's fields to the caller.
type SObjectDescription struct {
	Name   string         `json:"name"`
	Label  string         `json:"label"`
	Fields []SObjectField `json:"fields"`
}

// Credentials holds the JWT bearer flow settings.
type Credentials struct {
	LoginURL string
	Username string
	ClientID string
	KeyPath  string
}

// ClientOption tunes a Client.
type ClientOption func(*sfClient)

// WithRateLimit caps API calls at rps per second. Non-positive rps leaves
// calls unthrottled.
func WithRateLimit(rps float64) ClientOption {
	return func(c *sfClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// sfClient adapts go-salesforce to Client. The library takes no context, so
// ctx only bounds the wait for a rate-limit token.
type sfClient struct {
	sf      *salesforce.Salesforce
	limiter *rate.Limiter
}

// NewClient adapts an initialized go-salesforce handle.
func NewClient(sf *salesforce.Salesforce, opts ...ClientOption) Client {
	c := &sfClient{sf: sf}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect authenticates with the JWT bearer flow and returns a Client.
func Connect(creds Credentials, opts ...ClientOption) (Client, error) {
	if creds.ClientID == "" {
		return nil, eris.New("sf: client id is required (RECORDUI_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(creds.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "sf: read JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         creds.LoginURL,
		Username:       creds.Username,
		ConsumerKey:    creds.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "sf: init")
	}

	return NewClient(sf, opts...), nil
}

// call takes a rate-limit token and runs fn, wrapping its error with op.
func (c *sfClient) call(ctx context.Context, op string, fn func() error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "sf: rate limit")
		}
	}
	if err := fn(); err != nil {
		return eris.Wrap(err, "sf: "+op)
	}
	return nil
}

func (c *sfClient) Query(ctx context.Context, soql string, out any) error {
	return c.call(ctx, "query", func() error {
		return c.sf.Query(soql, out)
	})
}

func (c *sfClient) InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error) {
	var id string
	err := c.call(ctx, "insert "+sObjectName, func() error {
		res, err := c.sf.InsertOne(sObjectName, record)
		if err != nil {
			return err
		}
		if !res.Success {
			return eris.Errorf("rejected: %v", res.Errors)
		}
		id = res.Id
		return nil
	})
	return id, err
}

// UpdateOne sends fields plus the Id. The caller's map is not modified.
func (c *sfClient) UpdateOne(ctx context.Context, sObjectName string, id string, fields map[string]any) error {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["Id"] = id
	return c.call(ctx, fmt.Sprintf("update %s %s", sObjectName, id), func() error {
		return c.sf.UpdateOne(sObjectName, body)
	})
}

func (c *sfClient) DeleteOne(ctx context.Context, sObjectName string, id string) error {
	return c.call(ctx, fmt.Sprintf("delete %s %s", sObjectName, id), func() error {
		return c.sf.DeleteOne(sObjectName, map[string]any{"Id": id})
	})
}

func (c *sfClient) DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error) {
	var desc *SObjectDescription
	err := c.call(ctx, "describe "+name, func() error {
		resp, err := c.sf.DoRequest("GET", "/sobjects/"+name+"/describe", nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck
		desc, err = decodeDescription(resp.Body)
		return err
	})
	return desc, err
}
