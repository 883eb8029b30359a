package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmails(t *testing.T) {
	cases := []struct {
		name   string
		texts  []string
		expect []string
	}{
		{
			name:   "single address in prose",
			texts:  []string{"We're hiring! Send your resume to jobs@acme.com today."},
			expect: []string{"jobs@acme.com"},
		},
		{
			name:   "case collapses to one entry",
			texts:  []string{"Contact Jobs@Acme.COM", "or jobs@acme.com"},
			expect: []string{"jobs@acme.com"},
		},
		{
			name: "multiple addresses sorted",
			texts: []string{
				"reach out to zara@startup.io",
				"or apply via apply+swe@bigco.co.uk (mention this post)",
			},
			expect: []string{"apply+swe@bigco.co.uk", "zara@startup.io"},
		},
		{
			name:   "no addresses",
			texts:  []string{"DM me for details", "link in bio"},
			expect: []string{},
		},
		{
			name:   "sentence punctuation is not part of the address",
			texts:  []string{"Questions? Contact jobs@acme.com.", "or hr@acme.com- we reply fast"},
			expect: []string{"hr@acme.com", "jobs@acme.com"},
		},
		{
			name:   "domain requires a dot",
			texts:  []string{"not-an-address@localhost but real@example.org"},
			expect: []string{"real@example.org"},
		},
		{
			name:   "address embedded in punctuation",
			texts:  []string{"(email: recruiter_1@corp-site.net)"},
			expect: []string{"recruiter_1@corp-site.net"},
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expect, Emails(test.texts))
		})
	}
}

func TestEmailsOutputPassesValid(t *testing.T) {
	out := Emails([]string{"ping jobs@acme.com., hr@acme.co.uk. or apply+x@big-co.io- thanks"})
	require.NotEmpty(t, out)
	for _, e := range out {
		require.True(t, Valid(e), e)
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		input string
		valid bool
	}{
		{input: "a@x.com", valid: true},
		{input: "first.last+tag@sub.domain.org", valid: true},
		{input: "no-at-sign.com", valid: false},
		{input: "trailing-dot@x.com.", valid: false},
		{input: "@x.com", valid: false},
		{input: "a@nodot", valid: false},
		{input: "", valid: false},
	}

	for _, test := range cases {
		require.Equal(t, test.valid, Valid(test.input), test.input)
	}
}

func TestPosts(t *testing.T) {
	page := `<html><body>
		<div role="article">Hiring SWE interns, email hr@x.com</div>
		<div role="article">Hiring SWE interns, email hr@x.com</div>
		<div role="article"><span>Looking for</span> <b>maintainers</b></div>
		<div role="article"><script>var x = 1;</script>Open source maintainers wanted</div>
		<div>not a post</div>
	</body></html>`

	posts, err := Posts(page)
	require.NoError(t, err)
	require.Equal(t, []string{
		"Hiring SWE interns, email hr@x.com",
		"Looking for maintainers",
		"Open source maintainers wanted",
	}, posts)
}

func TestPostsDataUrnFallback(t *testing.T) {
	page := `<html><body>
		<div data-urn="urn:li:activity:1">Reach me at dev@company.io</div>
	</body></html>`

	posts, err := Posts(page)
	require.NoError(t, err)
	require.Equal(t, []string{"Reach me at dev@company.io"}, posts)
}
