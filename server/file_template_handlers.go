package server

import (
	"embed"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/jrsteele09/star-console/navigation"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"deref": func(v *string) string {
			if v == nil {
				return ""
			}
			return *v
		},
		"flag": func(v *bool) bool {
			return v != nil && *v
		},
		"date": func(t any) string {
			switch v := t.(type) {
			case time.Time:
				if v.IsZero() {
					return "-"
				}
				return v.Format("2006-01-02 15:04")
			case *time.Time:
				if v == nil || v.IsZero() {
					return "-"
				}
				return v.Format("2006-01-02 15:04")
			}
			return "-"
		},
		"pathFor": func(name string, id string) string {
			return s.router.PathFor(name, map[string]string{"id": id})
		},
		"loginRedirect": navigation.LoginRedirect,
	}
}

// parsePages builds one template per page: layout.html plus pages/<route name>.html,
// which defines the "content" block.
func parsePages(funcs template.FuncMap) (map[string]*template.Template, error) {
	fsys := TemplateFilesFS()
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "layout.html")
	if err != nil {
		return nil, err
	}

	files, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		page, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := page.ParseFS(fsys, file); err != nil {
			return nil, err
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = page
	}
	return pages, nil
}
