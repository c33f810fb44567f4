// Package composer builds fully personalized messages for campaign
// delivery: subject, plaintext and HTML bodies rendered with the Liquid
// template language, the unsubscribe footer, and campaign attachments.
//
// Composition is pure: composing a message has no side effects, and any
// error it returns signals a configuration defect rather than a
// per-recipient condition.
package composer

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/newsletter-engine/internal/domain"
)

// ErrNoContent indicates a campaign that requests neither a plaintext nor
// an HTML body.
var ErrNoContent = errors.New("campaign selects no message body")

// Config holds the sender identity and link base used for every message.
type Config struct {
	FromName  string
	FromEmail string
	// BaseURL is the public site root the unsubscribe link points at.
	BaseURL string
}

// Context carries the per-campaign inputs that do not vary by recipient.
// The engine loads these once per run instead of once per message.
type Context struct {
	Newsletter  *domain.Newsletter
	Attachments []domain.Attachment
}

// Composer renders messages for one engine instance. Safe for concurrent
// use; parsed templates are cached by source text.
type Composer struct {
	lookup *Lookup
	engine *liquid.Engine
	cfg    Config
	cache  sync.Map // map[uint64]*liquid.Template
}

// New creates a composer that resolves templates through the given lookup.
func New(lookup *Lookup, cfg Config) *Composer {
	return &Composer{
		lookup: lookup,
		engine: liquid.NewEngine(),
		cfg:    cfg,
	}
}

// Compose builds the message for one recipient.
//
// The plaintext body comes from the slug-specific template when present,
// else the generic default. The HTML body comes from template lookup when
// the campaign sets use_template; otherwise the raw newsletter content is
// treated as a template string with only the recipient's first name bound.
// Both bodies get an unsubscribe footer carrying the recipient's email and
// token. A TemplateNotFound or render error aborts the whole run.
func (c *Composer) Compose(campaign *domain.Campaign, sub *domain.Subscriber, rc Context) (*domain.EmailMessage, error) {
	if !campaign.SendPlain && !campaign.SendHTML {
		return nil, fmt.Errorf("campaign %s: %w", campaign.Slug, ErrNoContent)
	}
	if rc.Newsletter == nil {
		return nil, fmt.Errorf("campaign %s: no newsletter attached", campaign.Slug)
	}

	unsubscribe := c.unsubscribeURL(sub)
	bindings := map[string]interface{}{
		"email":           sub.Email,
		"name":            sub.Name,
		"first_name":      sub.FirstName(),
		"city":            sub.City,
		"postal_code":     sub.PostalCode,
		"country":         sub.Country,
		"subject":         strings.TrimSpace(rc.Newsletter.Subject),
		"content":         rc.Newsletter.Content,
		"campaign":        campaign.Title,
		"unsubscribe_url": unsubscribe,
	}

	msg := &domain.EmailMessage{
		To:          sub.Email,
		ToName:      sub.Name,
		FromName:    c.cfg.FromName,
		FromEmail:   c.cfg.FromEmail,
		Subject:     strings.TrimSpace(rc.Newsletter.Subject),
		Attachments: rc.Attachments,
	}

	if campaign.SendPlain {
		src, err := c.lookup.Resolve(textCandidates(campaign.Slug))
		if err != nil {
			return nil, err
		}
		body, err := c.render(src, bindings)
		if err != nil {
			return nil, fmt.Errorf("render text body for %s: %w", campaign.Slug, err)
		}
		msg.TextBody = body + "\n\nUnsubscribe: " + unsubscribe + "\n"
	}

	if campaign.SendHTML {
		var body string
		var err error
		if campaign.UseTemplate {
			src, lerr := c.lookup.Resolve(htmlCandidates(campaign.Slug))
			if lerr != nil {
				return nil, lerr
			}
			body, err = c.render(src, bindings)
		} else {
			// Raw newsletter content as the template, first name only.
			body, err = c.render(rc.Newsletter.Content,
				map[string]interface{}{"first_name": sub.FirstName()})
		}
		if err != nil {
			return nil, fmt.Errorf("render html body for %s: %w", campaign.Slug, err)
		}
		msg.HTMLBody = body + fmt.Sprintf("<br><a href=%q>Unsubscribe</a>.", unsubscribe)
	}

	return msg, nil
}

// unsubscribeURL builds the opt-out link carrying the recipient's identity
// and token.
func (c *Composer) unsubscribeURL(sub *domain.Subscriber) string {
	return fmt.Sprintf("%s/unsubscribe/?email=%s&token=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.QueryEscape(sub.Email),
		url.QueryEscape(sub.Token))
}

// render parses and renders a Liquid template. Parsed templates are
// cached by source hash, so an edited newsletter body or template file
// can never hit a stale entry for its campaign.
func (c *Composer) render(src string, bindings map[string]interface{}) (string, error) {
	key := sourceKey(src)
	if cached, ok := c.cache.Load(key); ok {
		return cached.(*liquid.Template).RenderString(bindings)
	}

	tpl, err := c.engine.ParseString(src)
	if err != nil {
		return "", err
	}
	c.cache.Store(key, tpl)

	return tpl.RenderString(bindings)
}

func sourceKey(src string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(src))
	return h.Sum64()
}
