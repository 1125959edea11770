package formatter

import (
	"encoding/xml"

	"github.com/juju/errors"

	"github.com/KnockOutEZ/copydeck/internal/source"
)

type XMLFormatter struct {
	opts Options
}

type xmlOutput struct {
	XMLName xml.Name  `xml:"payload"`
	Items   []xmlItem `xml:"items>item"`
}

type xmlItem struct {
	Name    string `xml:"name,attr"`
	Origin  string `xml:"origin,attr"`
	Content string `xml:",cdata"`
}

func (f *XMLFormatter) Format(items []source.Item) (string, error) {
	output := xmlOutput{}
	for _, item := range items {
		output.Items = append(output.Items, xmlItem{
			Name:    item.Name,
			Origin:  string(item.Origin),
			Content: content(item, f.opts),
		})
	}

	data, err := xml.MarshalIndent(output, "", "  ")
	if err != nil {
		return "", errors.Annotate(err, "encoding xml payload")
	}

	return xml.Header + string(data) + "\n", nil
}
