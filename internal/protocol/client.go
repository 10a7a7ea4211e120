package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/lodestar-vc/lodestar/internal/auth"
	"github.com/lodestar-vc/lodestar/internal/core"
	"github.com/lodestar-vc/lodestar/internal/transfer"
)

// Client speaks the fetch protocol against one remote and implements
// transfer.Transport. A client carries the state of a single negotiation
// session; call Reset to start another.
type Client struct {
	baseURL string
	auth    auth.Authenticator
	client  *http.Client

	// negotiation session state
	wants   []string
	haves   []string
	flushed bool
	packRes io.ReadCloser
}

// NewClient creates a client for the given base URL
func NewClient(url string, a auth.Authenticator) *Client {
	if a == nil {
		a = &auth.NoneAuth{}
	}
	return &Client{
		baseURL: strings.TrimSuffix(url, "/"),
		auth:    a,
		client:  &http.Client{},
	}
}

func (c *Client) newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if err := c.auth.Authenticate(req); err != nil {
		return nil, fmt.Errorf("failed to authenticate request: %w", err)
	}
	return req, nil
}

// ListRefs fetches the remote's full advertisement, sorted by ref name so
// the order is stable across calls
func (c *Client) ListRefs() ([]*transfer.RemoteHead, error) {
	req, err := c.newRequest(http.MethodGet, "/info/refs", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote refs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote returned %s listing refs", resp.Status)
	}

	var refs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&refs); err != nil {
		return nil, fmt.Errorf("failed to decode advertisement: %w", err)
	}

	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)

	heads := make([]*transfer.RemoteHead, 0, len(names))
	for _, name := range names {
		hash, err := core.ParseHash(refs[name])
		if err != nil {
			return nil, fmt.Errorf("invalid hash for %s in advertisement: %w", name, err)
		}
		heads = append(heads, &transfer.RemoteHead{Name: name, RemoteOID: hash})
	}

	return heads, nil
}

// SendWants records the negotiated want list for the session
func (c *Client) SendWants(wants transfer.WantList) error {
	if len(c.wants) > 0 {
		return errors.New("wants already sent for this session")
	}
	for _, head := range wants {
		c.wants = append(c.wants, head.RemoteOID.String())
	}
	return nil
}

// SendHave records one known object identifier
func (c *Client) SendHave(oid core.Hash) error {
	if c.flushed {
		return errors.New("haves phase already closed")
	}
	c.haves = append(c.haves, oid.String())
	return nil
}

// SendFlush closes the haves phase. HTTP has no half-sent frame to flush,
// so this only marks the boundary.
func (c *Client) SendFlush() error {
	c.flushed = true
	return nil
}

// SendDone performs the upload-pack exchange with everything the session
// collected and retains the response stream for DownloadPack
func (c *Client) SendDone() error {
	if len(c.wants) == 0 {
		return errors.New("nothing wanted, no exchange to finish")
	}

	body, err := json.Marshal(uploadPackRequest{
		Wants: c.wants,
		Haves: c.haves,
		Done:  true,
	})
	if err != nil {
		return err
	}

	req, err := c.newRequest(http.MethodPost, "/upload-pack", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", jsonContentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload-pack request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("remote returned %s for upload-pack", resp.Status)
	}

	c.packRes = resp.Body
	return nil
}

// DownloadPack hands out the pack stream produced by the finished
// negotiation. The caller owns the stream and must close it.
func (c *Client) DownloadPack() (io.ReadCloser, error) {
	if c.packRes == nil {
		return nil, errors.New("negotiation not completed, no pack to download")
	}
	stream := c.packRes
	c.packRes = nil
	return stream, nil
}

// FetchObject retrieves a single object by hash (GET /objects/{hash})
func (c *Client) FetchObject(hash core.Hash) (*core.Object, error) {
	req, err := c.newRequest(http.MethodGet, "/objects/"+hash.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, core.ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote returned %s fetching object", resp.Status)
	}

	var rec struct {
		Type string `json:"type"`
		Data []byte `json:"data"`
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode object: %w", err)
	}

	parsed, err := core.ParseHash(rec.Hash)
	if err != nil {
		return nil, fmt.Errorf("invalid object hash: %w", err)
	}

	return &core.Object{
		Type: core.ObjectType(rec.Type),
		Data: rec.Data,
		Hash: parsed,
	}, nil
}

// Reset discards the negotiation session so the client can run another
func (c *Client) Reset() {
	if c.packRes != nil {
		c.packRes.Close()
		c.packRes = nil
	}
	c.wants = nil
	c.haves = nil
	c.flushed = false
}
