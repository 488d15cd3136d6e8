package dhl_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tournevent/dhlbridge/pkg/dhl"
	"github.com/tournevent/dhlbridge/pkg/dhl/soap"
	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

func TestNewError_SuggestionPerKind(t *testing.T) {
	for _, kind := range []dhl.ErrorKind{
		dhl.KindAuth, dhl.KindNotFound, dhl.KindValidation,
		dhl.KindUpstreamFault, dhl.KindParse, dhl.KindTimeout,
		dhl.KindConnection, dhl.KindRateLimit, dhl.KindServer, dhl.KindUnknown,
	} {
		rec := dhl.NewError(kind, "boom")
		assert.NotEmpty(t, rec.Suggestion, "kind %s has no suggestion", kind)
	}
}

func TestErrorRecord_IsMatchesByKind(t *testing.T) {
	rec := dhl.NewError(dhl.KindTimeout, "deadline").WithCause(errors.New("net"))
	assert.True(t, errors.Is(rec, dhl.NewError(dhl.KindTimeout, "other message")))
	assert.False(t, errors.Is(rec, dhl.NewError(dhl.KindAuth, "other message")))
	assert.True(t, dhl.IsKind(rec, dhl.KindTimeout))
}

func TestWithRawPreview_TruncatesAndScrubs(t *testing.T) {
	long := strings.Repeat("x", 900)
	rec := dhl.NewError(dhl.KindParse, "bad").WithRawPreview([]byte(long))
	assert.LessOrEqual(t, len(rec.RawPreview), 500)

	leaky := `HTTP/1.1 401
Authorization: Basic c2VjcmV0cGFzcw==
X-Api-Key: topsecret
<wsse:Password Type="PasswordText">hunter2</wsse:Password>
<detail>bad credentials</detail>`
	rec = dhl.NewError(dhl.KindAuth, "denied").WithRawPreview([]byte(leaky))
	assert.NotContains(t, rec.RawPreview, "c2VjcmV0cGFzcw")
	assert.NotContains(t, rec.RawPreview, "topsecret")
	assert.NotContains(t, rec.RawPreview, "hunter2")
	assert.Contains(t, rec.RawPreview, "bad credentials")
}

func TestMapError_TransportClasses(t *testing.T) {
	cases := map[transport.Class]dhl.ErrorKind{
		transport.ClassTimeout:    dhl.KindTimeout,
		transport.ClassConnection: dhl.KindConnection,
		transport.ClassAuth:       dhl.KindAuth,
		transport.ClassNotFound:   dhl.KindNotFound,
		transport.ClassRateLimit:  dhl.KindRateLimit,
		transport.ClassServer:     dhl.KindServer,
		transport.ClassUpstream:   dhl.KindUpstreamFault,
	}
	for class, kind := range cases {
		rec := dhl.MapError(&transport.Failure{Class: class, Message: "m"})
		assert.Equal(t, kind, rec.Kind, "class %s", class)
	}
}

func TestMapError_ForbiddenSubReason(t *testing.T) {
	rec := dhl.MapError(&transport.Failure{
		Class: transport.ClassAuth, StatusCode: 403, SubReason: "forbidden", Message: "denied",
	})
	require.Equal(t, dhl.KindAuth, rec.Kind)
	assert.Equal(t, 403, rec.UpstreamStatus)
	assert.Contains(t, rec.Suggestion, "permission")
}

func TestMapError_SOAPErrors(t *testing.T) {
	rec := dhl.MapError(&soap.FaultError{Code: "420505", Message: "invalid account"})
	assert.Equal(t, dhl.KindUpstreamFault, rec.Kind)
	assert.Equal(t, "420505", rec.MachineCode)

	rec = dhl.MapError(&soap.NotFoundError{Message: "no shipment"})
	assert.Equal(t, dhl.KindNotFound, rec.Kind)

	rec = dhl.MapError(&soap.ParseError{Reason: "garbled", Raw: []byte("<oops>")})
	assert.Equal(t, dhl.KindParse, rec.Kind)
	assert.Contains(t, rec.RawPreview, "<oops>")
}

func TestMapError_RetriesPreserved(t *testing.T) {
	rec := dhl.MapError(&transport.Failure{Class: transport.ClassServer, Message: "503", Retries: 3})
	assert.Equal(t, 3, rec.RetriesConsumed)
}
