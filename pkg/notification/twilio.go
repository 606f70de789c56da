package notification

import (
	"context"
	"errors"
	"fmt"

	twilio "github.com/twilio/twilio-go"
	twilioClient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioClient sends through the Twilio Messages API.
type TwilioClient struct {
	rest        *twilio.RestClient
	callbackURL string
}

var ErrTwilioNotConfigured = errors.New("twilio credentials or sender number missing")

func NewTwilioClient(cfg SMSConfig) (*TwilioClient, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil, ErrTwilioNotConfigured
	}
	return &TwilioClient{
		rest: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		callbackURL: cfg.StatusCallbackURL,
	}, nil
}

func (t *TwilioClient) Send(ctx context.Context, from, to, body string) (*SMSReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)
	if t.callbackURL != "" {
		params.SetStatusCallback(t.callbackURL)
	}

	resp, err := t.rest.Api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("twilio create message: %w", err)
	}
	receipt := &SMSReceipt{}
	if resp.Sid != nil {
		receipt.SID = *resp.Sid
	}
	if resp.Status != nil {
		receipt.Status = *resp.Status
	}
	return receipt, nil
}

// CallbackVerifier checks the X-Twilio-Signature of status callbacks.
type CallbackVerifier struct {
	validator twilioClient.RequestValidator
}

func NewCallbackVerifier(authToken string) *CallbackVerifier {
	if authToken == "" {
		return nil
	}
	return &CallbackVerifier{validator: twilioClient.NewRequestValidator(authToken)}
}

// Verify reports whether signature matches url and the posted form params.
func (v *CallbackVerifier) Verify(url string, params map[string]string, signature string) bool {
	if v == nil || signature == "" {
		return false
	}
	return v.validator.Validate(url, params, signature)
}
