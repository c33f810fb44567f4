package composer

import (
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/newsletter-engine/internal/domain"
)

func testComposer(files map[string]string) *Composer {
	fsys := fstest.MapFS{}
	for path, src := range files {
		fsys[path] = &fstest.MapFile{Data: []byte(src)}
	}
	return New(NewLookup(fsys), Config{
		FromName:  "Ignite Weekly",
		FromEmail: "news@ignite.example",
		BaseURL:   "https://ignite.example/",
	})
}

func testSubscriber() *domain.Subscriber {
	return &domain.Subscriber{
		ID:    uuid.New(),
		Email: "ada@example.com",
		Name:  "Ada Lovelace",
		Token: "T1",
		City:  "London",
	}
}

func testContext() Context {
	return Context{Newsletter: &domain.Newsletter{
		ID:      uuid.New(),
		Subject: "  Weekly Digest  ",
		Content: "<p>Hello {{ first_name }}</p>",
	}}
}

func TestComposePlaintextWithUnsubscribeFooter(t *testing.T) {
	c := testComposer(map[string]string{
		"campaign/message.txt": "Hi {{ first_name }}, news from {{ city }}.\n\n{{ content }}",
	})
	campaign := &domain.Campaign{Slug: "weekly-1", SendPlain: true}

	msg, err := c.Compose(campaign, testSubscriber(), testContext())
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Ada Lovelace", msg.ToName)
	assert.Equal(t, "Ignite Weekly", msg.FromName)
	assert.Equal(t, "Weekly Digest", msg.Subject)
	assert.Contains(t, msg.TextBody, "Hi Ada, news from London.")
	assert.Contains(t, msg.TextBody, "Unsubscribe: https://ignite.example/unsubscribe/?email=ada%40example.com&token=T1")
	assert.Empty(t, msg.HTMLBody)
}

func TestComposeUnsubscribeLinkRoundTrips(t *testing.T) {
	c := testComposer(map[string]string{"campaign/message.txt": "body"})
	sub := testSubscriber()
	sub.Email = "ada+news@example.com"

	msg, err := c.Compose(&domain.Campaign{Slug: "weekly-1", SendPlain: true}, sub, testContext())
	require.NoError(t, err)

	line := ""
	for _, l := range strings.Split(msg.TextBody, "\n") {
		if strings.HasPrefix(l, "Unsubscribe: ") {
			line = strings.TrimPrefix(l, "Unsubscribe: ")
		}
	}
	require.NotEmpty(t, line)

	parsed, err := url.Parse(line)
	require.NoError(t, err)
	assert.Equal(t, "/unsubscribe/", parsed.Path)
	assert.Equal(t, "ada+news@example.com", parsed.Query().Get("email"))
	assert.Equal(t, "T1", parsed.Query().Get("token"))
}

func TestComposeHTMLFromTemplate(t *testing.T) {
	c := testComposer(map[string]string{
		"campaign/weekly-1/message.html": "<h1>{{ subject }}</h1>{{ content }}",
	})
	campaign := &domain.Campaign{Slug: "weekly-1", SendHTML: true, UseTemplate: true}

	msg, err := c.Compose(campaign, testSubscriber(), testContext())
	require.NoError(t, err)

	assert.Empty(t, msg.TextBody)
	assert.Contains(t, msg.HTMLBody, "<h1>Weekly Digest</h1>")
	assert.Contains(t, msg.HTMLBody, "<p>Hello Ada</p>")
	assert.Contains(t, msg.HTMLBody, `<a href="https://ignite.example/unsubscribe/?email=ada%40example.com&token=T1">Unsubscribe</a>`)
}

func TestComposeHTMLFromRawContent(t *testing.T) {
	// Without use_template the newsletter content itself is the template,
	// with only the first name bound.
	c := testComposer(nil)
	campaign := &domain.Campaign{Slug: "weekly-1", SendHTML: true}

	msg, err := c.Compose(campaign, testSubscriber(), testContext())
	require.NoError(t, err)

	assert.Contains(t, msg.HTMLBody, "<p>Hello Ada</p>")
	assert.Contains(t, msg.HTMLBody, "Unsubscribe")
}

func TestComposeRawContentReflectsNewsletterEdits(t *testing.T) {
	// Raw-content mode renders whatever the newsletter currently says.
	// An earlier composition for the same campaign must not pin the body.
	c := testComposer(nil)
	campaign := &domain.Campaign{Slug: "weekly-1", SendHTML: true}
	rc := testContext()
	rc.Newsletter.Content = "<p>OLD {{ first_name }}</p>"

	msg, err := c.Compose(campaign, testSubscriber(), rc)
	require.NoError(t, err)
	assert.Contains(t, msg.HTMLBody, "OLD Ada")

	rc.Newsletter.Content = "<p>NEW {{ first_name }}</p>"

	msg, err = c.Compose(campaign, testSubscriber(), rc)
	require.NoError(t, err)
	assert.Contains(t, msg.HTMLBody, "NEW Ada")
	assert.NotContains(t, msg.HTMLBody, "OLD Ada")
}

func TestComposeMultipart(t *testing.T) {
	c := testComposer(map[string]string{
		"campaign/message.txt":  "plain {{ first_name }}",
		"campaign/message.html": "<b>{{ first_name }}</b>",
	})
	campaign := &domain.Campaign{Slug: "weekly-1", SendPlain: true, SendHTML: true, UseTemplate: true}

	msg, err := c.Compose(campaign, testSubscriber(), testContext())
	require.NoError(t, err)

	assert.True(t, msg.Multipart())
	assert.Contains(t, msg.TextBody, "plain Ada")
	assert.Contains(t, msg.HTMLBody, "<b>Ada</b>")
}

func TestComposeCarriesAttachments(t *testing.T) {
	c := testComposer(map[string]string{"campaign/message.txt": "body"})
	rc := testContext()
	rc.Attachments = []domain.Attachment{{FileName: "report.pdf", Path: "/tmp/report.pdf"}}

	msg, err := c.Compose(&domain.Campaign{Slug: "weekly-1", SendPlain: true}, testSubscriber(), rc)
	require.NoError(t, err)

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "report.pdf", msg.Attachments[0].FileName)
}

func TestComposeRejectsNoBodySelection(t *testing.T) {
	c := testComposer(nil)

	_, err := c.Compose(&domain.Campaign{Slug: "weekly-1"}, testSubscriber(), testContext())
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestComposeMissingTemplateIsFatal(t *testing.T) {
	c := testComposer(nil)
	campaign := &domain.Campaign{Slug: "weekly-1", SendPlain: true}

	_, err := c.Compose(campaign, testSubscriber(), testContext())
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestComposeMissingNewsletter(t *testing.T) {
	c := testComposer(map[string]string{"campaign/message.txt": "body"})

	_, err := c.Compose(&domain.Campaign{Slug: "weekly-1", SendPlain: true}, testSubscriber(), Context{})
	assert.Error(t, err)
}
