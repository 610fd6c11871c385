// Package ui provides the overlay page loaded by the streaming software.
package ui

import (
	"html/template"
	"log/slog"
	"net/http"
	"os/exec"
	"runtime"
)

// fallbackTransitionMS is used by the page when a transition has no duration
const fallbackTransitionMS = 1000

type pageData struct {
	Title              string
	FallbackTransition int
}

// Handler serves the overlay page. Query ?keys=1 also shows the key names
// as they are pressed, which helps when setting up bindings.
func Handler(title string) http.Handler {
	data := pageData{Title: title, FallbackTransition: fallbackTransitionMS}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Warn("[ui] failed to render overlay page", "error", err)
		}
	})
}

// OpenBrowser opens url in the default browser
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("[ui] failed to open browser", "url", url, "error", err)
		return err
	}
	go cmd.Wait()
	return nil
}

var tmpl = template.Must(template.New("overlay").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        html, body { margin: 0; padding: 0; background: transparent; overflow: hidden; }
        #frame { width: 100vw; height: 100vh; object-fit: contain; display: block; }
        #keys {
            position: fixed; bottom: 8px; left: 8px; display: none;
            font: 14px monospace; color: #fff; background: rgba(0,0,0,.6);
            padding: 4px 8px; border-radius: 4px;
        }
    </style>
</head>
<body>
    <img id="frame" alt="">
    <div id="keys"></div>
    <script>
    (function () {
        const frame = document.getElementById('frame');
        const keysBox = document.getElementById('keys');
        const showKeys = new URLSearchParams(location.search).has('keys');
        const fallback = {{.FallbackTransition}};
        const held = new Set();
        let timer = null;
        let retry = 500;

        function asset(ref) {
            return '/' + ref.replace(/^\/+/, '');
        }

        function show(ref) {
            frame.src = asset(ref);
        }

        function renderKeys() {
            keysBox.textContent = Array.from(held).join(' + ');
            keysBox.style.display = showKeys && held.size ? 'block' : 'none';
        }

        function handle(msg) {
            const p = msg.payload || {};
            switch (msg.type) {
            case 'image_change':
                clearTimeout(timer);
                show(p.image);
                break;
            case 'transition':
                clearTimeout(timer);
                show(p.transition_image);
                timer = setTimeout(() => show(p.final_image), p.duration > 0 ? p.duration : fallback);
                break;
            case 'key_pressed':
                held.add(p.key);
                renderKeys();
                break;
            case 'key_released':
                held.delete(p.key);
                renderKeys();
                break;
            }
        }

        function connect() {
            const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
            const ws = new WebSocket(proto + location.host + '/ws');
            ws.onopen = () => { retry = 500; };
            ws.onmessage = (e) => {
                try { handle(JSON.parse(e.data)); } catch (err) { console.error(err); }
            };
            ws.onclose = () => {
                held.clear();
                renderKeys();
                setTimeout(connect, retry);
                retry = Math.min(retry * 2, 10000);
            };
        }

        connect();
    })();
    </script>
</body>
</html>
`))
