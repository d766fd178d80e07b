package export

import (
	"io/fs"
	"path"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"

	appfs "github.com/pathwayhq/pathway/fs"
)

const localesDir = "locales"

// Localizer translates column keys to the labels of the embedded locale catalogs.
type Localizer struct {
	cat     *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
}

// NewLocalizer loads the embedded `locales/<lang>.yaml` files. English is the fallback language.
func NewLocalizer() (*Localizer, error) {
	return newLocalizer(appfs.FS)
}

func newLocalizer(fsys fs.FS) (*Localizer, error) {
	fps, err := fs.Glob(fsys, path.Join(localesDir, "*.yaml"))
	if err != nil {
		return nil, errors.Wrap(err, "globbing locales")
	}

	l := &Localizer{
		cat:  catalog.NewBuilder(catalog.Fallback(language.English)),
		tags: []language.Tag{language.English},
	}
	for _, fp := range fps {
		tag, err := language.Parse(strings.TrimSuffix(path.Base(fp), ".yaml"))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing language of %s", fp)
		}
		data, err := fs.ReadFile(fsys, fp)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", fp)
		}
		labels := make(map[string]string)
		if err = yaml.Unmarshal(data, &labels); err != nil {
			return nil, errors.Wrapf(err, "decoding %s", fp)
		}
		for key, label := range labels {
			// labels are printf formats
			if err = l.cat.SetString(tag, key, strings.ReplaceAll(label, "%", "%%")); err != nil {
				return nil, errors.Wrapf(err, "loading %s: %s", fp, key)
			}
		}
		if tag != language.English {
			l.tags = append(l.tags, tag)
		}
	}
	l.matcher = language.NewMatcher(l.tags)
	return l, nil
}

// Match returns the supported language closest to `lang`, or to the `acceptLanguage` header when `lang` is empty.
func (l *Localizer) Match(lang, acceptLanguage string) language.Tag {
	var wanted []language.Tag
	if lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			wanted = append(wanted, tag)
		}
	}
	if len(wanted) == 0 && acceptLanguage != "" {
		wanted, _, _ = language.ParseAcceptLanguage(acceptLanguage)
	}
	_, i, _ := l.matcher.Match(wanted...)
	return l.tags[i]
}

// Labels returns a function translating column keys in `tag`. Unknown keys are returned as is.
func (l *Localizer) Labels(tag language.Tag) func(key string) string {
	p := message.NewPrinter(tag, message.Catalog(l.cat))
	return func(key string) string {
		return p.Sprintf(key)
	}
}
