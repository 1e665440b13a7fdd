// Package hue talks to a Philips Hue bridge: mDNS discovery, pairing,
// entertainment area listing and DTLS color streaming. It is the lighting
// consumer of the ambient pipeline.
package hue

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// The bridge serves a self-signed certificate, so verification is off.
var client = &http.Client{
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	},
}

// ErrLinkButtonNotPressed is returned by Pair when the user has not yet
// pressed the link button on the bridge.
var ErrLinkButtonNotPressed = errors.New("link button not pressed")

// ErrUnauthorized is returned when the bridge rejects the API credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Credentials holds the API credentials for a paired bridge.
type Credentials struct {
	Username  string `json:"username"`
	Clientkey string `json:"clientkey"`
}

// Pair registers a new application with the bridge at the given IP. The
// user must press the link button on the bridge before calling this.
func Pair(ip net.IP) (Credentials, error) {
	url := bridgeURL(ip, "/api")

	body := strings.NewReader(`{"devicetype":"ambient#device","generateclientkey":true}`)
	resp, err := client.Post(url, "application/json", body)
	if err != nil {
		return Credentials{}, fmt.Errorf("pairing request: %w", err)
	}
	defer resp.Body.Close()

	var result []pairResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Credentials{}, fmt.Errorf("decoding pair response: %w", err)
	}

	if len(result) == 0 {
		return Credentials{}, fmt.Errorf("empty pair response")
	}

	r := result[0]
	if r.Error != nil {
		if r.Error.Type == 101 {
			return Credentials{}, ErrLinkButtonNotPressed
		}
		return Credentials{}, fmt.Errorf("bridge error %d: %s", r.Error.Type, r.Error.Description)
	}

	if r.Success == nil {
		return Credentials{}, fmt.Errorf("unexpected pair response: no success or error")
	}

	return Credentials{Username: r.Success.Username, Clientkey: r.Success.Clientkey}, nil
}

// EntertainmentArea represents a Hue entertainment configuration.
type EntertainmentArea struct {
	ID         string
	Name       string
	Type       string
	Status     string
	ChannelIDs []uint8
	Lights     int
}

func (a EntertainmentArea) String() string {
	return fmt.Sprintf("%s (%d channels, %d lights)", a.Name, len(a.ChannelIDs), a.Lights)
}

// EntertainmentAreas retrieves entertainment configurations from the bridge.
func EntertainmentAreas(ip net.IP, username string) ([]EntertainmentArea, error) {
	url := bridgeURL(ip, "/clip/v2/resource/entertainment_configuration")

	req, err := newRequest("GET", url, nil, username)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching entertainment areas: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 403 {
		return nil, ErrUnauthorized
	}

	var result entertainmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding entertainment response: %w", err)
	}

	areas := make([]EntertainmentArea, len(result.Data))
	for i, d := range result.Data {
		channelIDs := make([]uint8, len(d.Channels))
		for j, ch := range d.Channels {
			channelIDs[j] = ch.ChannelID
		}
		areas[i] = EntertainmentArea{
			ID:         d.ID,
			Name:       d.Metadata.Name,
			Type:       d.ConfigurationType,
			Status:     d.Status,
			ChannelIDs: channelIDs,
			Lights:     len(d.LightServices),
		}
	}

	return areas, nil
}

// Activate tells the bridge to start entertainment mode for the given area.
func Activate(ip net.IP, username, areaID string) error {
	return setAreaAction(ip, username, areaID, "start")
}

// Deactivate tells the bridge to stop entertainment mode for the given area.
func Deactivate(ip net.IP, username, areaID string) error {
	return setAreaAction(ip, username, areaID, "stop")
}

func setAreaAction(ip net.IP, username, areaID, action string) error {
	url := bridgeURL(ip, "/clip/v2/resource/entertainment_configuration/"+areaID)
	body := strings.NewReader(fmt.Sprintf(`{"action":%q}`, action))

	req, err := newRequest("PUT", url, body, username)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", action, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s area: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s area: HTTP %d", action, resp.StatusCode)
	}
	return nil
}

func bridgeURL(ip net.IP, path string) string {
	host := ip.String()
	if ip.To4() == nil {
		host = "[" + host + "]"
	}
	return "https://" + host + path
}

func newRequest(method, url string, body io.Reader, username string) (*http.Request, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("hue-application-key", username)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// JSON mapping structs

type pairResponse struct {
	Success *pairSuccess `json:"success"`
	Error   *pairError   `json:"error"`
}

type pairSuccess struct {
	Username  string `json:"username"`
	Clientkey string `json:"clientkey"`
}

type pairError struct {
	Type        int    `json:"type"`
	Description string `json:"description"`
}

type entertainmentResponse struct {
	Data []entertainmentData `json:"data"`
}

type entertainmentData struct {
	ID                string            `json:"id"`
	Metadata          entertainmentMeta `json:"metadata"`
	ConfigurationType string            `json:"configuration_type"`
	Status            string            `json:"status"`
	Channels          []channelData     `json:"channels"`
	LightServices     []json.RawMessage `json:"light_services"`
}

type entertainmentMeta struct {
	Name string `json:"name"`
}

type channelData struct {
	ChannelID uint8 `json:"channel_id"`
}
