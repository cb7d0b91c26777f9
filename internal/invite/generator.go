// Package invite produces the shareable join artifact for a room: a join URL
// pointing at this host on the local network, rendered as a QR code image.
package invite

import (
	"encoding/base64"
	"fmt"
	"net"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Generator produces a scannable artifact for a join URL. A failure here
// never rolls back room creation; the broker reports it to the creator and
// the room persists.
type Generator interface {
	Generate(joinURL string) (string, error)
}

// QRGenerator renders the join URL as a PNG QR code, returned as a base64
// data URL the front end can drop straight into an <img> tag.
type QRGenerator struct{}

func (QRGenerator) Generate(joinURL string) (string, error) {
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// JoinURL builds the deep link a scanning device opens. The room code is
// resolved by the front end from the query parameter.
func JoinURL(baseURL, roomCode string) string {
	return fmt.Sprintf("%s/?room=%s", strings.TrimRight(baseURL, "/"), roomCode)
}

// BaseURL derives the address other devices on the network should use. An
// explicit externalURL wins; otherwise the first non-loopback IPv4 address is
// used, falling back to localhost.
func BaseURL(externalURL, port string) string {
	if externalURL != "" {
		return externalURL
	}
	return fmt.Sprintf("http://%s%s", LanIP(), port)
}

// LanIP returns this host's first non-loopback IPv4 address.
func LanIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip.String()
		}
	}
	return "localhost"
}
