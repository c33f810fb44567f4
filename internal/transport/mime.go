package transport

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/ignite/newsletter-engine/internal/domain"
)

// buildRawMessage assembles an RFC 5322 message with attachments:
// multipart/mixed wrapping a multipart/alternative body part (or a single
// body part when only one variant is set) plus one base64 part per
// attachment.
func buildRawMessage(msg *domain.EmailMessage) ([]byte, error) {
	var buf bytes.Buffer
	mixed := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s <%s>\r\n", mime.QEncoding.Encode("UTF-8", msg.FromName), msg.FromEmail)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixed.Boundary())

	if err := writeBody(mixed, msg); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		if err := writeAttachment(mixed, att); err != nil {
			return nil, err
		}
	}

	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBody(mixed *multipart.Writer, msg *domain.EmailMessage) error {
	if !msg.Multipart() {
		subtype, body := "plain", msg.TextBody
		if msg.HTMLBody != "" {
			subtype, body = "html", msg.HTMLBody
		}
		part, err := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type": {fmt.Sprintf("text/%s; charset=UTF-8", subtype)},
		})
		if err != nil {
			return err
		}
		_, err = part.Write([]byte(body))
		return err
	}

	var inner bytes.Buffer
	alt := multipart.NewWriter(&inner)

	// Plaintext first per RFC 2046: least faithful variant leads.
	text, err := alt.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}})
	if err != nil {
		return err
	}
	if _, err := text.Write([]byte(msg.TextBody)); err != nil {
		return err
	}
	html, err := alt.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=UTF-8"}})
	if err != nil {
		return err
	}
	if _, err := html.Write([]byte(msg.HTMLBody)); err != nil {
		return err
	}
	if err := alt.Close(); err != nil {
		return err
	}

	part, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", alt.Boundary())},
	})
	if err != nil {
		return err
	}
	_, err = part.Write(inner.Bytes())
	return err
}

func writeAttachment(mixed *multipart.Writer, att domain.Attachment) error {
	data, err := os.ReadFile(att.Path)
	if err != nil {
		return fmt.Errorf("read attachment %s: %w", att.FileName, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(att.FileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	part, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.FileName)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return err
	}

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(encoded, data)

	// Wrap base64 at 76 columns.
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err := part.Write(encoded[:n]); err != nil {
			return err
		}
		if _, err := part.Write([]byte("\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}
