package netscan

import (
	"context"
	"crypto/tls"
	"crypto/x509/pkix"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/svcscan/svcscan/internal/model"
)

// TlsConnector layers a TLS handshake over an already-connected TCP stream
// (the "adoption" model of section 4.4) with a permissive client profile,
// the same profile the corpus's own tlsclient test harness uses against
// badssl.com-style misconfigured targets.
type TlsConnector struct{}

// Handshake performs the TLS handshake over conn and returns the wrapped
// stream plus the extracted cipher/DN info. serverName drives SNI only:
// certificate verification, including the name check, is skipped, since
// the scan target is frequently an IP literal with no certificate to match.
func (TlsConnector) Handshake(ctx context.Context, conn net.Conn, serverName string, timeout time.Duration) (*tls.Conn, *model.TlsInfo, error) {
	cfg := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         serverName,
		MinVersion:         tls.VersionTLS10,
		MaxVersion:         tls.VersionTLS13,
	}

	tlsConn := tls.Client(conn, cfg)
	_ = conn.SetDeadline(time.Now().Add(timeout))

	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := tlsConn.HandshakeContext(hctx); err != nil {
		kind := model.TlsHandshakeFailed
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			kind = model.TlsStreamTruncated
		}
		return nil, nil, &model.TlsError{Endpoint: serverName, Kind: kind, Message: err.Error()}
	}
	_ = conn.SetDeadline(time.Time{})

	state := tlsConn.ConnectionState()
	info := &model.TlsInfo{
		CipherSuite: tls.CipherSuiteName(state.CipherSuite),
	}
	if len(state.PeerCertificates) > 0 {
		cert := state.PeerCertificates[0]
		info.X509Issuer = formatDN(cert.Issuer)
		info.X509Subject = formatDN(cert.Subject)
	}

	return tlsConn, info, nil
}

// formatDN renders a certificate name the way the original SvcScan did: an
// OpenSSL-style "/C=.../O=.../CN=..." oneline, with the leading separator
// stripped and remaining separators turned into ", ".
func formatDN(name pkix.Name) string {
	var b strings.Builder
	add := func(attr, val string) {
		if val == "" {
			return
		}
		b.WriteByte('/')
		b.WriteString(attr)
		b.WriteByte('=')
		b.WriteString(val)
	}

	for _, c := range name.Country {
		add("C", c)
	}
	for _, o := range name.Organization {
		add("O", o)
	}
	for _, ou := range name.OrganizationalUnit {
		add("OU", ou)
	}
	for _, l := range name.Locality {
		add("L", l)
	}
	for _, p := range name.Province {
		add("ST", p)
	}
	add("CN", name.CommonName)

	raw := strings.TrimPrefix(b.String(), "/")
	return strings.ReplaceAll(raw, "/", ", ")
}
