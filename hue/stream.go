package hue

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"github.com/pion/dtls/v2"

	ambient "github.com/DalexKraus/LibAmbient"
)

// Streamer sends color data to the bridge over DTLS entertainment
// streaming (UDP port 2100, PSK from the pairing clientkey).
type Streamer struct {
	conn       net.Conn
	areaID     string
	channelIDs []uint8
	seq        uint8
}

// NewStreamer establishes a DTLS connection to the bridge for
// entertainment streaming. The area must already be activated.
func NewStreamer(ip net.IP, username, clientkey, areaID string, channelIDs []uint8) (*Streamer, error) {
	psk, err := hex.DecodeString(clientkey)
	if err != nil {
		return nil, fmt.Errorf("decoding clientkey: %w", err)
	}

	addr := &net.UDPAddr{IP: ip, Port: 2100}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := dtls.DialWithContext(ctx, "udp", addr, &dtls.Config{
		PSK: func(hint []byte) ([]byte, error) {
			return psk, nil
		},
		PSKIdentityHint:    []byte(username),
		CipherSuites:       []dtls.CipherSuiteID{dtls.TLS_PSK_WITH_AES_128_GCM_SHA256},
		InsecureSkipVerify: true,
	})
	if err != nil {
		return nil, fmt.Errorf("DTLS handshake: %w", err)
	}

	return &Streamer{
		conn:       conn,
		areaID:     areaID,
		channelIDs: channelIDs,
	}, nil
}

// Send sends the given color to all channels of the area.
func (s *Streamer) Send(c ambient.RGB) error {
	msg := BuildStreamMessage(s.areaID, s.channelIDs, c, s.seq)
	s.seq++
	_, err := s.conn.Write(msg)
	if err != nil {
		return fmt.Errorf("writing to DTLS: %w", err)
	}
	return nil
}

// Close closes the DTLS connection.
func (s *Streamer) Close() error {
	return s.conn.Close()
}

// BuildStreamMessage constructs a HueStream v2 binary message.
func BuildStreamMessage(areaID string, channelIDs []uint8, c ambient.RGB, seq uint8) []byte {
	// Header: 52 bytes + 7 bytes per channel
	msg := make([]byte, 52+7*len(channelIDs))

	// "HueStream" magic (9 bytes)
	copy(msg[0:9], "HueStream")

	// Version
	msg[9] = 0x02  // major
	msg[10] = 0x00 // minor

	// Sequence number
	msg[11] = seq

	// Reserved
	msg[12] = 0x00
	msg[13] = 0x00

	// Color space: 0x00 = RGB
	msg[14] = 0x00

	// Reserved
	msg[15] = 0x00

	// Entertainment configuration ID (36 ASCII chars, UUID format)
	copy(msg[16:52], padOrTruncate(areaID, 36))

	// 8-bit to 16-bit color conversion
	r16 := uint16(c.R) * 257
	g16 := uint16(c.G) * 257
	b16 := uint16(c.B) * 257

	// Per-channel data (7 bytes each)
	offset := 52
	for _, ch := range channelIDs {
		msg[offset] = ch
		msg[offset+1] = byte(r16 >> 8)
		msg[offset+2] = byte(r16)
		msg[offset+3] = byte(g16 >> 8)
		msg[offset+4] = byte(g16)
		msg[offset+5] = byte(b16 >> 8)
		msg[offset+6] = byte(b16)
		offset += 7
	}

	return msg
}

func padOrTruncate(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}
