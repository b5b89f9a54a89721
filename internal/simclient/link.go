package simclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pentaring/meshcore/internal/ipaddr"
)

// Link implements iface.PysimLink over the same controller Client talks
// to: connecting claims a simulated WLAN IP for (nodeID, orientation);
// Send/Recv post and long-poll framed messages through the controller,
// which is itself responsible for delivering them to the paired peer's
// simulated radio.
type Link struct {
	client     *Client
	nodeID     string
	deviceName string
}

// NewLink builds a Link for one sub-device, identified to the controller
// by nodeID/deviceName (e.g. "north").
func NewLink(client *Client, nodeID, deviceName string) *Link {
	return &Link{client: client, nodeID: nodeID, deviceName: deviceName}
}

type connectResponse struct {
	IP string `json:"ip"`
}

// Connect asks the controller for this sub-device's simulated WLAN IP.
func (l *Link) Connect(ctx context.Context) (ipaddr.Addr, error) {
	url := fmt.Sprintf("%s/nodes/%s/devices/%s/connect", l.client.baseURL, l.nodeID, l.deviceName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return 0, fmt.Errorf("simclient: build connect request: %w", err)
	}
	resp, err := l.client.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("simclient: connect: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("simclient: connect returned %d", resp.StatusCode)
	}
	var body connectResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("simclient: decode connect response: %w", err)
	}
	return ipaddr.Parse(body.IP)
}

// Send posts frame to the controller for delivery to the paired peer.
func (l *Link) Send(frame []byte) error {
	url := fmt.Sprintf("%s/nodes/%s/devices/%s/send", l.client.baseURL, l.nodeID, l.deviceName)
	resp, err := l.client.httpClient.Post(url, "application/octet-stream", bytes.NewReader(frame))
	if err != nil {
		return fmt.Errorf("simclient: send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("simclient: send returned %d", resp.StatusCode)
	}
	return nil
}

// Recv long-polls the controller for the next frame addressed to this
// sub-device, blocking until one arrives or ctx is cancelled.
func (l *Link) Recv(ctx context.Context) ([]byte, error) {
	url := fmt.Sprintf("%s/nodes/%s/devices/%s/recv", l.client.baseURL, l.nodeID, l.deviceName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("simclient: build recv request: %w", err)
	}
	resp, err := l.client.recvClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("simclient: recv: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("simclient: recv returned %d", resp.StatusCode)
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("simclient: read recv body: %w", err)
	}
	return buf.Bytes(), nil
}

// Close is a no-op: the controller owns the simulated link's lifetime.
func (l *Link) Close() error { return nil }
