package orchestrator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// wireNames returns the names a logical field is sent under for strategy s.
func (s Strategy) wireNames(field string) []string {
	if names, ok := s.Aliases[field]; ok && len(names) > 0 {
		return names
	}
	return []string{field}
}

// buildRequest encodes intent according to s. The body is kept as bytes so every
// retry sends an identical copy.
func buildRequest(intent Intent, s Strategy) (*Request, error) {
	method := intent.Method
	if method == "" {
		method = http.MethodPost
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	switch s.Encoding {
	case FormURLEncoded:
		body, contentType, err = encodeForm(intent, s)
	case JSON:
		body, contentType, err = encodeJSON(intent, s)
	case Multipart:
		body, contentType, err = encodeMultipart(intent, s)
	default:
		err = fmt.Errorf("unsupported encoding %d", s.Encoding)
	}
	if err != nil {
		return nil, err
	}

	header := make(http.Header, len(s.Header)+1)
	for k, v := range s.Header {
		header[k] = append([]string(nil), v...)
	}
	header.Set("Content-Type", contentType)

	return &Request{Method: method, URL: intent.URL, Header: header, Body: body}, nil
}

func encodeForm(intent Intent, s Strategy) ([]byte, string, error) {
	if len(intent.Files) > 0 {
		return nil, "", fmt.Errorf("%s encoding cannot carry files", s.Encoding)
	}
	values := url.Values{}
	for _, f := range intent.Fields {
		for _, name := range s.wireNames(f.Name) {
			values.Add(name, f.Value)
		}
	}
	return []byte(values.Encode()), "application/x-www-form-urlencoded", nil
}

func encodeJSON(intent Intent, s Strategy) ([]byte, string, error) {
	if len(intent.Files) > 0 {
		return nil, "", fmt.Errorf("%s encoding cannot carry files", s.Encoding)
	}
	obj := make(map[string]string, len(intent.Fields))
	for _, f := range intent.Fields {
		for _, name := range s.wireNames(f.Name) {
			obj[name] = f.Value
		}
	}
	body, err := json.Marshal(obj)
	if err != nil {
		return nil, "", fmt.Errorf("marshal json body: %w", err)
	}
	return body, "application/json", nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(intent Intent, s Strategy) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range intent.Fields {
		for _, name := range s.wireNames(f.Name) {
			if err := w.WriteField(name, f.Value); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", name, err)
			}
		}
	}

	for _, file := range intent.Files {
		contentType := file.ContentType
		if contentType == "" {
			contentType = mimetype.Detect(file.Content).String()
		}
		for _, name := range s.wireNames(file.Field) {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
				quoteEscaper.Replace(name), quoteEscaper.Replace(file.Name)))
			h.Set("Content-Type", contentType)
			part, err := w.CreatePart(h)
			if err != nil {
				return nil, "", fmt.Errorf("create part %s: %w", name, err)
			}
			if _, err := part.Write(file.Content); err != nil {
				return nil, "", fmt.Errorf("write part %s: %w", name, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
