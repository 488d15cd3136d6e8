package soap

import (
	"encoding/base64"
	"encoding/xml"
	"regexp"
	"strings"
	"time"

	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

// EpodInput identifies the delivered shipment whose proof-of-delivery
// document is being fetched. Cookie is an opaque session value some
// DHL gateways require; it is forwarded verbatim when present.
type EpodInput struct {
	TrackingID  string
	Account     string
	ContentType string // epod-summary, epod-detail, ...
	Cookie      string
}

const epodBodyTemplate = `<doc:shipmentDocumentRetrieveReq xmlns:doc="glDHLExpressePOD/providers/DocumentRetrieve">
      <MSG>
        <Hdr Id="{{.MessageReference}}" Ver="1.038" Dtm="{{.MessageTime}}">
          <Sndr AppCd="DCG" AppNm="DCG"/>
        </Hdr>
        <Bd>
          <Shp Id="{{.TrackingID}}">
            <ShpTr>
              <SCDtl AccNo="{{.Account}}" CRlTyCd="PY"/>
            </ShpTr>
            <ShpInDoc>
              <SDoc DocTyCd="POD"/>
            </ShpInDoc>
          </Shp>
          <GenrcRq>
            <GenrcRqCritr TyCd="IMG_CONTENT" Val="{{.ContentType}}"/>
            <GenrcRqCritr TyCd="IMG_FORMAT" Val="PDF"/>
            <GenrcRqCritr TyCd="DOC_RND_REQ" Val="true"/>
            <GenrcRqCritr TyCd="EXT_REQ" Val="true"/>
            <GenrcRqCritr TyCd="DUPL_HANDL" Val="CORE_WB_NO"/>
            <GenrcRqCritr TyCd="SORT_BY" Val="$INGEST_DATE,D"/>
            <GenrcRqCritr TyCd="LANGUAGE" Val="es"/>
          </GenrcRq>
        </Bd>
      </MSG>
    </doc:shipmentDocumentRetrieveReq>`

// EpodRequest builds the proof-of-delivery retrieve envelope.
func (c *Composer) EpodRequest(in *EpodInput) (*transport.Request, error) {
	data := struct {
		MessageReference string
		MessageTime      string
		TrackingID       string
		Account          string
		ContentType      string
	}{
		MessageReference: messageRef(),
		MessageTime:      c.cfg.Now().UTC().Format(time.RFC3339),
		TrackingID:       xmlEscape(in.TrackingID),
		Account:          xmlEscape(c.account(in.Account)),
		ContentType:      xmlEscape(in.ContentType),
	}
	body, err := c.buildEnvelope(epodBodyTemplate, data)
	if err != nil {
		return nil, err
	}
	req := c.soapRequest(epodPath, epodAction, "epod", body, true)
	if in.Cookie != "" {
		req.Headers["Cookie"] = in.Cookie
	}
	return req, nil
}

// ============================================================================
// ePOD response parsing
// ============================================================================

// Extraction strategies, recorded on the artifact so operators can
// tell which path produced the document.
const (
	EpodStrategyAttribute = "img-attribute"
	EpodStrategyText      = "element-text"
	EpodStrategyRegex     = "regex-fallback"
)

// ParsedEpod is one extracted proof-of-delivery document.
type ParsedEpod struct {
	PDF            string // base64
	Strategy       string
	Size           int
	TotalDocuments int
}

var epodImgRe = regexp.MustCompile(`Img="([^"]*JVBERi[^"]*)"`)

func looksLikePDF(s string) bool {
	return len(s) > 100 && (strings.HasPrefix(s, "JVBERi") || strings.HasPrefix(s, "%PDF"))
}

// normalizePDF returns valid base64 for the document, encoding raw
// %PDF bytes when the gateway ships them unencoded.
func normalizePDF(s string) (string, bool) {
	if strings.HasPrefix(s, "%PDF") {
		return base64.StdEncoding.EncodeToString([]byte(s)), true
	}
	if _, err := base64.StdEncoding.DecodeString(s); err == nil {
		return s, true
	}
	return "", false
}

func countDocuments(body []byte) int {
	return strings.Count(string(body), "<Img ") + strings.Count(string(body), "Img=\"JVBERi")
}

// walkForImgAttr scans every element for an Img attribute holding a
// base64 PDF.
func walkForImgAttr(body []byte) string {
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		for _, attr := range start.Attr {
			if attr.Name.Local == "Img" && looksLikePDF(attr.Value) {
				return attr.Value
			}
		}
	}
}

// walkForTextPDF scans element character data for a document that was
// inlined as text instead of an attribute.
func walkForTextPDF(body []byte) string {
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		cd, ok := tok.(xml.CharData)
		if !ok {
			continue
		}
		text := strings.TrimSpace(string(cd))
		if looksLikePDF(text) {
			return text
		}
	}
}

// ParseEpod pulls the PDF out of a document-retrieve response. DHL
// deployments disagree on where the image lives, so extraction tries
// the Img attribute first, then inlined element text, then a raw
// regex over the body.
func ParseEpod(body []byte) (*ParsedEpod, error) {
	if f := faultOf(body); f != nil {
		return nil, f
	}

	attempts := []struct {
		strategy string
		extract  func([]byte) string
	}{
		{EpodStrategyAttribute, walkForImgAttr},
		{EpodStrategyText, walkForTextPDF},
		{EpodStrategyRegex, func(b []byte) string {
			if m := epodImgRe.FindSubmatch(b); m != nil {
				return string(m[1])
			}
			return ""
		}},
	}

	for _, a := range attempts {
		raw := a.extract(body)
		if raw == "" {
			continue
		}
		pdf, ok := normalizePDF(raw)
		if !ok {
			continue
		}
		return &ParsedEpod{
			PDF:            pdf,
			Strategy:       a.strategy,
			Size:           len(pdf),
			TotalDocuments: countDocuments(body),
		}, nil
	}

	if strings.Contains(string(body), "No Data Found") || strings.Contains(string(body), "NO_DATA") {
		return nil, &NotFoundError{Message: "no proof of delivery available yet for this shipment"}
	}
	return nil, &ParseError{Reason: "no PDF document in ePOD response", Raw: body}
}
