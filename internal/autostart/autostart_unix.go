//go:build !windows

package autostart

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"
)

const macLaunchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{xml .Exec}}</string>
{{- range .Args}}
        <string>{{xml .}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`

const xdgDesktopEntry = `[Desktop Entry]
Type=Application
Name={{.Name}}
Comment=Keyboard driven stream overlay
Exec={{quote .Exec}}{{range .Args}} {{quote .}}{{end}}
Terminal=false
X-GNOME-Autostart-enabled=true
`

type entryData struct {
	Label string
	Name  string
	Exec  string
	Args  []string
}

var funcs = template.FuncMap{
	"xml": func(s string) string {
		var b bytes.Buffer
		xml.EscapeText(&b, []byte(s))
		return b.String()
	},
	// desktop entry Exec quoting
	"quote": func(s string) string {
		if !strings.ContainsAny(s, " \t\"'\\$`") {
			return s
		}
		r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
		return `"` + r.Replace(s) + `"`
	},
}

// entryPath returns the login entry file and its template for this OS
func entryPath() (string, string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		return filepath.Join(home, "Library", "LaunchAgents", label+".plist"), macLaunchAgentPlist, nil
	default:
		dir := os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", "", err
			}
			dir = filepath.Join(home, ".config")
		}
		return filepath.Join(dir, "autostart", appName+".desktop"), xdgDesktopEntry, nil
	}
}

func render(text, exe string, args []string) ([]byte, error) {
	tmpl, err := template.New("entry").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, entryData{Label: label, Name: appName, Exec: exe, Args: args})
	return buf.Bytes(), err
}

func enable(exe string, args []string) error {
	path, text, err := entryPath()
	if err != nil {
		return err
	}
	data, err := render(text, exe, args)
	if err != nil {
		return fmt.Errorf("render login entry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func disable() error {
	path, _, err := entryPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func isEnabled() bool {
	path, _, err := entryPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
