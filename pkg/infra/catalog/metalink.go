package catalog

import (
	"encoding/xml"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/apocacache/zimsync/pkg/domain/model"
	"github.com/apocacache/zimsync/pkg/domain/types"
)

// Metalink (RFC 5854) document shapes, as published next to each
// catalog item (<item>.meta4)
type metalinkDoc struct {
	XMLName xml.Name       `xml:"metalink"`
	Files   []metalinkFile `xml:"file"`
}

type metalinkFile struct {
	Name   string         `xml:"name,attr"`
	Size   int64          `xml:"size"`
	Hashes []metalinkHash `xml:"hash"`
	URLs   []metalinkURL  `xml:"url"`
}

type metalinkHash struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type metalinkURL struct {
	Priority int    `xml:"priority,attr"`
	Value    string `xml:",chardata"`
}

// hashPreference orders digest algorithms strongest-first; the first
// recognized one becomes the single source of truth for verification
var hashPreference = []model.HashAlgo{model.HashSHA256, model.HashSHA1, model.HashMD5}

// ParseMetalink parses a metadata document into a mirror descriptor:
// candidate URLs ordered by declared priority plus the authoritative
// digest when one is present.
func ParseMetalink(name string, data []byte) (*model.MirrorDescriptor, error) {
	var doc metalinkDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse metadata document",
			goerr.T(types.TagDiscovery), goerr.V("name", name))
	}
	if len(doc.Files) == 0 {
		return nil, goerr.New("metadata document has no file element",
			goerr.T(types.TagDiscovery), goerr.V("name", name))
	}

	file := doc.Files[0]
	desc := &model.MirrorDescriptor{
		Name:      name,
		SizeBytes: file.Size,
	}

	// Stable sort keeps document order among equal priorities; an
	// absent priority attribute (0) sorts last per RFC 5854 semantics
	urls := make([]metalinkURL, 0, len(file.URLs))
	for _, u := range file.URLs {
		if v := strings.TrimSpace(u.Value); v != "" {
			u.Value = v
			urls = append(urls, u)
		}
	}
	sort.SliceStable(urls, func(i, j int) bool {
		pi, pj := urls[i].Priority, urls[j].Priority
		if pi == 0 {
			pi = 1000000
		}
		if pj == 0 {
			pj = 1000000
		}
		return pi < pj
	})
	for _, u := range urls {
		desc.Mirrors = append(desc.Mirrors, u.Value)
	}

	if len(desc.Mirrors) == 0 {
		return nil, goerr.New("metadata document has no mirror URLs",
			goerr.T(types.TagDiscovery), goerr.V("name", name))
	}

	desc.Hash = pickHash(file.Hashes)
	return desc, nil
}

func pickHash(hashes []metalinkHash) model.ContentHash {
	found := map[model.HashAlgo]string{}
	for _, h := range hashes {
		algo, ok := model.ParseHashAlgo(h.Type)
		if !ok {
			continue
		}
		if _, dup := found[algo]; !dup {
			found[algo] = strings.ToLower(strings.TrimSpace(h.Value))
		}
	}
	for _, algo := range hashPreference {
		if digest, ok := found[algo]; ok && digest != "" {
			return model.ContentHash{Algo: algo, Digest: digest}
		}
	}
	return model.ContentHash{}
}
