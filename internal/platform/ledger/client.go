package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/metrics"
)

// Client talks to the canister RPC surface over its HTTP boundary. Every
// call is bounded by the configured timeout and carries the caller's
// principal as the sender; responses use an Ok/Err envelope with a tagged
// error variant.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

var _ Actor = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "ledger").Logger(),
	}
}

type callKind string

const (
	kindQuery  callKind = "query"
	kindUpdate callKind = "update"
)

type envelope struct {
	Sender string      `json:"sender,omitempty"`
	Arg    interface{} `json:"arg,omitempty"`
}

type wireError struct {
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type reply struct {
	Ok  json.RawMessage `json:"ok,omitempty"`
	Err *wireError      `json:"err,omitempty"`
}

// call performs one request/response round trip. out may be nil for calls
// whose Ok payload carries nothing.
func (c *Client) call(ctx context.Context, kind callKind, method, sender string, arg, out interface{}) error {
	body, err := json.Marshal(envelope{Sender: sender, Arg: arg})
	if err != nil {
		return fmt.Errorf("ledger %s: encode request: %w", method, err)
	}

	url := fmt.Sprintf("%s/api/v1/%s/%s", c.baseURL, kind, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ledger %s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Str("method", method).Err(err).Msg("ledger call failed")
		metrics.RecordLedgerCall(method, string(TagUnavailable), time.Since(start))
		return &Error{Tag: TagUnavailable, Method: method, Message: err.Error()}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("kind", string(kind)).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("ledger call")

	record := func(outcome string) {
		metrics.RecordLedgerCall(method, outcome, time.Since(start))
	}

	switch {
	case resp.StatusCode >= 500:
		record(string(TagUnavailable))
		return &Error{Tag: TagUnavailable, Method: method, Message: fmt.Sprintf("ledger returned status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		record(string(TagInternal))
		return &Error{Tag: TagInternal, Method: method, Message: fmt.Sprintf("ledger returned status %d", resp.StatusCode)}
	}

	var rep reply
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		record(string(TagInternal))
		return &Error{Tag: TagInternal, Method: method, Message: fmt.Sprintf("decode response: %v", err)}
	}

	if rep.Err != nil {
		tag := parseTag(rep.Err.Tag)
		record(string(tag))
		return &Error{Tag: tag, Method: method, Message: rep.Err.Message}
	}
	if out != nil {
		if err := json.Unmarshal(rep.Ok, out); err != nil {
			record(string(TagInternal))
			return &Error{Tag: TagInternal, Method: method, Message: fmt.Sprintf("decode ok payload: %v", err)}
		}
	}
	record("ok")
	return nil
}

func parseTag(s string) ErrorTag {
	switch ErrorTag(s) {
	case TagUnauthorized, TagAnonymous, TagNotFound, TagInvalid, TagUnavailable, TagInternal:
		return ErrorTag(s)
	}
	return TagInternal
}

type pageArg struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type pagedEMRReply struct {
	Items []EMRHeader `json:"items"`
	Total int         `json:"total"`
}

type pagedLogReply struct {
	Items []LogEntry `json:"items"`
	Total int        `json:"total"`
}

// -- Patient registry --

func (c *Client) GetPatientInfo(ctx context.Context, principal string) (*PatientWithNIK, error) {
	var out PatientWithNIK
	if err := c.call(ctx, kindQuery, "get_patient_info", principal, nil, &out); err != nil {
		return nil, err
	}
	out.KYCStatus = ParseKYCStatus(string(out.KYCStatus))
	return &out, nil
}

func (c *Client) RegisterPatient(ctx context.Context, principal string, p Patient, nikHash string) error {
	arg := struct {
		Patient
		NIKHash string `json:"nik_hash"`
	}{Patient: p, NIKHash: nikHash}
	return c.call(ctx, kindUpdate, "register_patient", principal, arg, nil)
}

func (c *Client) GetPatientInfoWithConsent(ctx context.Context, sessionID string) (*PatientWithNIK, error) {
	arg := struct {
		SessionID string `json:"session_id"`
	}{SessionID: sessionID}
	var out PatientWithNIK
	if err := c.call(ctx, kindQuery, "get_patient_info_with_consent", "", arg, &out); err != nil {
		return nil, err
	}
	out.KYCStatus = ParseKYCStatus(string(out.KYCStatus))
	return &out, nil
}

// -- EMR registry --

func (c *Client) EMRListWithSession(ctx context.Context, sessionID string, page, limit int) ([]EMRHeader, int, error) {
	arg := struct {
		SessionID string `json:"session_id"`
		pageArg
	}{SessionID: sessionID, pageArg: pageArg{Page: page, Limit: limit}}
	var out pagedEMRReply
	if err := c.call(ctx, kindQuery, "emr_list_with_session", "", arg, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

func (c *Client) EMRListPatient(ctx context.Context, principal string, page, limit int) ([]EMRHeader, int, error) {
	var out pagedEMRReply
	if err := c.call(ctx, kindQuery, "emr_list_patient", principal, pageArg{Page: page, Limit: limit}, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

// -- Consent --

func (c *Client) CreateConsent(ctx context.Context, principal string) (*SessionCode, error) {
	var out SessionCode
	if err := c.call(ctx, kindUpdate, "create_consent", principal, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClaimConsent(ctx context.Context, providerPrincipal, code string) (*SessionCode, error) {
	arg := struct {
		Code string `json:"code"`
	}{Code: code}
	var out SessionCode
	if err := c.call(ctx, kindUpdate, "claim_consent", providerPrincipal, arg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ConsentList(ctx context.Context, principal string) ([]Consent, error) {
	var out []Consent
	if err := c.call(ctx, kindQuery, "consent_list", principal, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RevokeConsent(ctx context.Context, principal string, codes []string) error {
	arg := struct {
		Codes []string `json:"codes"`
	}{Codes: codes}
	return c.call(ctx, kindUpdate, "revoke_consent", principal, arg, nil)
}

// -- Provider registry --

func (c *Client) RegisterNewProvider(ctx context.Context, adminPrincipal, providerPrincipal, displayName, address string) (*Provider, error) {
	arg := struct {
		Principal   string `json:"principal"`
		DisplayName string `json:"display_name"`
		Address     string `json:"address"`
	}{Principal: providerPrincipal, DisplayName: displayName, Address: address}
	var out Provider
	if err := c.call(ctx, kindUpdate, "register_new_provider", adminPrincipal, arg, &out); err != nil {
		return nil, err
	}
	out.ActivationStatus = ParseActivationStatus(string(out.ActivationStatus))
	return &out, nil
}

func (c *Client) GetProviderBatch(ctx context.Context, ids []string) ([]Provider, error) {
	arg := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	var out []Provider
	if err := c.call(ctx, kindQuery, "get_provider_batch", "", arg, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].ActivationStatus = ParseActivationStatus(string(out[i].ActivationStatus))
	}
	return out, nil
}

func (c *Client) GetProviderInfoWithPrincipal(ctx context.Context, principal string) (*Provider, error) {
	var out Provider
	if err := c.call(ctx, kindQuery, "get_provider_info_with_principal", principal, nil, &out); err != nil {
		return nil, err
	}
	out.ActivationStatus = ParseActivationStatus(string(out.ActivationStatus))
	return &out, nil
}

func (c *Client) SuspendProvider(ctx context.Context, adminPrincipal, providerID string) error {
	arg := struct {
		ProviderID string `json:"provider_id"`
	}{ProviderID: providerID}
	return c.call(ctx, kindUpdate, "suspend_provider", adminPrincipal, arg, nil)
}

func (c *Client) UnsuspendProvider(ctx context.Context, adminPrincipal, providerID string) error {
	arg := struct {
		ProviderID string `json:"provider_id"`
	}{ProviderID: providerID}
	return c.call(ctx, kindUpdate, "unsuspend_provider", adminPrincipal, arg, nil)
}

// -- Administration --

func (c *Client) BindAdmin(ctx context.Context, callerPrincipal, newAdminPrincipal string) error {
	arg := struct {
		Principal string `json:"principal"`
	}{Principal: newAdminPrincipal}
	return c.call(ctx, kindUpdate, "bind_admin", callerPrincipal, arg, nil)
}

func (c *Client) GetLogs(ctx context.Context, adminPrincipal string, page, limit int) ([]LogEntry, int, error) {
	var out pagedLogReply
	if err := c.call(ctx, kindQuery, "get_logs", adminPrincipal, pageArg{Page: page, Limit: limit}, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}
