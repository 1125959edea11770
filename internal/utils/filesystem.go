package utils

import (
	"net/http"
	"strings"

	"github.com/juju/errors"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// EncodingAuto asks DecodeText callers to detect the encoding first.
const EncodingAuto = "auto"

// DetectMimeType sniffs the first 512 bytes of content.
func DetectMimeType(content []byte) (string, bool) {
	buffer := content
	if len(buffer) > 512 {
		buffer = buffer[:512]
	}

	mtype := http.DetectContentType(buffer)
	isText := strings.HasPrefix(mtype, "text/") ||
		mtype == "application/json" ||
		mtype == "application/xml" ||
		mtype == "application/javascript"

	return mtype, isText
}

// DetectEncoding returns chardet's best guess at the charset of content.
func DetectEncoding(content []byte) (string, error) {
	if len(content) == 0 {
		return "UTF-8", nil
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(content)
	if err != nil {
		return "", errors.Annotate(err, "detecting encoding")
	}
	return result.Charset, nil
}

// DecodeText converts content from the named encoding to UTF-8. A leading
// byte order mark wins over the name.
func DecodeText(content []byte, name string) (string, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", errors.Trace(err)
	}

	decoded, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), content)
	if err != nil {
		return "", errors.Annotatef(err, "decoding %s", name)
	}
	return string(decoded), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "ascii", "us-ascii":
		return unicode.UTF8, nil
	}

	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	// ianaindex returns a nil encoding for names it knows but can't decode.
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	return nil, errors.NotSupportedf("encoding %q", name)
}

// CountLines counts lines, including a final unterminated one.
func CountLines(content string) int {
	if len(content) == 0 {
		return 0
	}

	count := strings.Count(content, "\n")
	if content[len(content)-1] != '\n' {
		count++
	}
	return count
}
