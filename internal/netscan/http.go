package netscan

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/svcscan/svcscan/internal/model"
)

const userAgent = "SvcScan/1.0"

// Exchange sends a minimal HTTP/1.1 request over conn (already connected,
// optionally TLS-wrapped) and tolerantly parses the response, per section
// 4.6. End-of-stream and partial-message conditions after a complete header
// block are treated as successful termination rather than failures.
func Exchange(conn net.Conn, target, uri, method string, sendTimeout, recvTimeout time.Duration) (*model.HttpRequest, *model.HttpResponse, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	req.Header.SetMethod(method)
	req.Header.SetRequestURI(uri)
	req.Header.SetHost(target)
	req.Header.Set("Connection", "close")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")

	if err := conn.SetWriteDeadline(time.Now().Add(sendTimeout)); err != nil {
		return nil, nil, &model.HttpError{Kind: model.HttpHeaders}
	}
	bw := bufio.NewWriter(conn)
	if err := req.Write(bw); err != nil {
		return nil, nil, &model.HttpError{Kind: model.HttpHeaders}
	}
	if err := bw.Flush(); err != nil {
		return nil, nil, &model.HttpError{Kind: model.HttpHeaders}
	}

	httpReq := headersToRequest(req, method, uri)

	if err := conn.SetReadDeadline(time.Now().Add(recvTimeout)); err != nil {
		return httpReq, nil, &model.HttpError{Kind: model.HttpBody}
	}

	var raw bytes.Buffer
	br := bufio.NewReader(io.TeeReader(conn, &raw))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	readErr := resp.Read(br)
	statusCode := resp.Header.StatusCode()

	if readErr != nil && statusCode == 0 {
		if !tolerableReadErr(readErr) {
			return httpReq, nil, &model.HttpError{Kind: model.HttpHeaders}
		}
	}

	respVersion := "1.0"
	if resp.Header.IsHTTP11() {
		respVersion = "1.1"
	}

	httpResp := &model.HttpResponse{
		Version: respVersion,
		Status:  statusCode,
		Reason:  string(resp.Header.StatusMessage()),
		Headers: make(map[string]string),
		Body:    append([]byte(nil), resp.Body()...),
		Valid:   statusCode != 0,
		Raw:     raw.Bytes(),
	}
	resp.Header.VisitAll(func(key, value []byte) {
		httpResp.Headers[normalizeHeaderCase(string(key))] = string(value)
	})

	return httpReq, httpResp, nil
}

func headersToRequest(req *fasthttp.Request, method, uri string) *model.HttpRequest {
	out := &model.HttpRequest{
		Method:  method,
		URI:     uri,
		Version: "1.1",
		Headers: make(map[string]string),
	}
	req.Header.VisitAll(func(key, value []byte) {
		out.Headers[normalizeHeaderCase(string(key))] = string(value)
	})
	return out
}

// tolerableReadErr reports whether a response.Read failure is the
// end-of-stream / partial-message-at-boundary condition section 4.6 treats
// as a successful termination rather than a parse failure.
func tolerableReadErr(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "partial") || strings.Contains(msg, "closed")
}

// normalizeHeaderCase applies the canonical-case rule of section 4.7: split
// on '-', lowercase each segment, uppercase its first character, rejoin.
func normalizeHeaderCase(key string) string {
	segments := strings.Split(key, "-")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		lower := strings.ToLower(seg)
		segments[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(segments, "-")
}
