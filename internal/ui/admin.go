package ui

import (
	"html/template"
	"log/slog"
	"net/http"
)

// AdminHandler serves the bindings editor. It drives the /api/ routes from
// the browser; a configured API token is asked for once and kept in
// localStorage.
func AdminHandler(title string) http.Handler {
	data := pageData{Title: title + " admin"}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := adminTmpl.Execute(w, data); err != nil {
			slog.Warn("[ui] failed to render admin page", "error", err)
		}
	})
}

var adminTmpl = template.Must(template.New("admin").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font: 14px sans-serif; margin: 24px; color: #222; max-width: 1100px; }
        h2 { margin-top: 28px; border-bottom: 1px solid #ddd; padding-bottom: 4px; }
        table { border-collapse: collapse; width: 100%; }
        th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #eee; vertical-align: middle; }
        tr.off { color: #999; }
        label { display: inline-block; margin: 4px 12px 4px 0; }
        input[type=text], input[type=number], select { padding: 3px; }
        .thumb { height: 40px; max-width: 80px; object-fit: contain; background: #f4f4f4; }
        #msg { position: fixed; top: 8px; right: 8px; padding: 6px 12px; border-radius: 4px; display: none; }
        #msg.ok { background: #d7f5dd; display: block; }
        #msg.err { background: #f8d7da; display: block; }
        .images { display: flex; flex-wrap: wrap; gap: 12px; }
        .images figure { margin: 0; text-align: center; font-size: 12px; }
    </style>
</head>
<body>
<div id="msg"></div>
<h1>{{.Title}}</h1>
<p>
    <button id="reload">Reload bindings</button>
    <button id="restart">Restart server</button>
    <a href="/" target="_blank">Open overlay</a>
</p>

<h2>Keybindings</h2>
<table>
    <thead><tr><th></th><th>Keys</th><th>Type</th><th>Image</th><th>Description</th><th>Transitions</th><th>Enabled</th><th></th></tr></thead>
    <tbody id="bindings"></tbody>
</table>

<h2 id="form-title">New keybinding</h2>
<form id="binding-form">
    <input type="hidden" name="id">
    <label>Keys <input type="text" name="keys" placeholder="ctrl+m" required></label>
    <label>Type <select name="type"><option>toggle</option><option>hold</option></select></label>
    <label>Image <select name="image" class="image-select" required></select></label>
    <label>Description <input type="text" name="description"></label>
    <br>
    <label>Transition in <select name="in_image" class="image-select optional"></select></label>
    <label>ms <input type="number" name="in_duration" min="0" placeholder="auto"></label>
    <label>Transition out <select name="out_image" class="image-select optional"></select></label>
    <label>ms <input type="number" name="out_duration" min="0" placeholder="auto"></label>
    <br>
    <button type="submit">Save</button>
    <button type="button" id="cancel-edit">Clear</button>
</form>

<h2>Settings</h2>
<form id="settings-form">
    <label>Port <input type="number" name="port" min="1" max="65535"></label>
    <label>Shutdown combo <input type="text" name="shutdown_combo" placeholder="ctrl+shift+q"></label>
    <label>Default image <select name="default_image" class="image-select optional"></select></label>
    <button type="submit">Save settings</button>
</form>

<h2>Images</h2>
<form id="upload-form"><input type="file" name="file" accept="image/*"> <button type="submit">Upload</button></form>
<div class="images" id="images"></div>

<script>
(function () {
    const tokenKey = 'keybrame_token';
    let images = [];
    let bindings = [];

    function flash(text, ok) {
        const m = document.getElementById('msg');
        m.textContent = text;
        m.className = ok ? 'ok' : 'err';
        setTimeout(() => { m.className = ''; }, 3000);
    }

    async function api(method, path, body, retried) {
        const opts = { method: method, headers: {} };
        const token = localStorage.getItem(tokenKey);
        if (token) opts.headers['Authorization'] = 'Bearer ' + token;
        if (body instanceof FormData) {
            opts.body = body;
        } else if (body !== undefined) {
            opts.headers['Content-Type'] = 'application/json';
            opts.body = JSON.stringify(body);
        }
        const res = await fetch(path, opts);
        if (res.status === 401 && !retried) {
            const t = prompt('API token');
            if (t) {
                localStorage.setItem(tokenKey, t);
                return api(method, path, body, true);
            }
        }
        const data = await res.json().catch(() => ({}));
        if (!res.ok) {
            const details = (data.details || []).join('; ');
            throw new Error((data.error || res.statusText) + (details ? ': ' + details : ''));
        }
        return data;
    }

    function splitKeys(s) {
        return s.split(/[+,\s]+/).map(k => k.trim()).filter(Boolean);
    }

    function transition(image, duration) {
        if (!image) return null;
        const t = { image: image };
        if (duration) t.duration = parseInt(duration, 10);
        return t;
    }

    function fillImageSelects() {
        document.querySelectorAll('.image-select').forEach(sel => {
            const keep = sel.value;
            sel.innerHTML = '';
            if (sel.classList.contains('optional')) sel.add(new Option('(none)', ''));
            images.forEach(img => sel.add(new Option(img.filename, img.path)));
            sel.value = keep;
        });
    }

    function renderBindings() {
        const body = document.getElementById('bindings');
        body.innerHTML = '';
        bindings.forEach((b, i) => {
            const tr = document.createElement('tr');
            if (!b.enabled) tr.className = 'off';
            const trans = [b.transition_in && 'in: ' + b.transition_in.image,
                           b.transition_out && 'out: ' + b.transition_out.image].filter(Boolean).join(', ');
            const cells = [
                '<button data-act="up"' + (i === 0 ? ' disabled' : '') + '>&uarr;</button>' +
                '<button data-act="down"' + (i === bindings.length - 1 ? ' disabled' : '') + '>&darr;</button>',
                b.keys.join('+'), b.type, '<img class="thumb" src="/' + b.image + '"> ' + b.image,
                b.description || '', trans,
                '<input type="checkbox" data-act="enabled"' + (b.enabled ? ' checked' : '') + '>',
                '<button data-act="edit">Edit</button> <button data-act="delete">Delete</button>'
            ];
            cells.forEach((html, c) => {
                const td = document.createElement('td');
                if (c === 1 || c === 4 || c === 5) td.textContent = html; else td.innerHTML = html;
                tr.appendChild(td);
            });
            tr.addEventListener('click', e => onRowAction(e, b, i));
            body.appendChild(tr);
        });
    }

    async function onRowAction(e, b, i) {
        const act = e.target.dataset && e.target.dataset.act;
        if (!act) return;
        try {
            if (act === 'delete') {
                if (!confirm('Delete ' + b.keys.join('+') + '?')) return;
                await api('DELETE', '/api/keybindings/' + b.id);
            } else if (act === 'enabled') {
                await api('PUT', '/api/keybindings/' + b.id, { enabled: e.target.checked });
            } else if (act === 'up' || act === 'down') {
                const order = bindings.map(x => x.id);
                const j = act === 'up' ? i - 1 : i + 1;
                [order[i], order[j]] = [order[j], order[i]];
                await api('PUT', '/api/keybindings/reorder', { order: order });
            } else if (act === 'edit') {
                editBinding(b);
                return;
            }
            await refresh();
        } catch (err) {
            flash(err.message, false);
        }
    }

    function editBinding(b) {
        const f = document.getElementById('binding-form');
        f.id.value = b.id;
        f.keys.value = b.keys.join('+');
        f.type.value = b.type;
        f.image.value = b.image;
        f.description.value = b.description || '';
        f.in_image.value = b.transition_in ? b.transition_in.image : '';
        f.in_duration.value = b.transition_in && b.transition_in.duration ? b.transition_in.duration : '';
        f.out_image.value = b.transition_out ? b.transition_out.image : '';
        f.out_duration.value = b.transition_out && b.transition_out.duration ? b.transition_out.duration : '';
        document.getElementById('form-title').textContent = 'Edit keybinding #' + b.id;
    }

    function clearForm() {
        document.getElementById('binding-form').reset();
        document.getElementById('binding-form').id.value = '';
        document.getElementById('form-title').textContent = 'New keybinding';
    }

    async function refresh() {
        const [list, imgs, settings] = await Promise.all([
            api('GET', '/api/keybindings'), api('GET', '/api/images'), api('GET', '/api/settings')]);
        bindings = list;
        images = imgs;
        fillImageSelects();
        renderBindings();

        const gallery = document.getElementById('images');
        gallery.innerHTML = '';
        images.forEach(img => {
            const fig = document.createElement('figure');
            fig.innerHTML = '<img class="thumb"><figcaption></figcaption><button>Delete</button>';
            fig.querySelector('img').src = '/' + img.path;
            fig.querySelector('figcaption').textContent = img.filename;
            fig.querySelector('button').onclick = async () => {
                if (!confirm('Delete ' + img.filename + '?')) return;
                try { await api('DELETE', '/api/images/' + encodeURIComponent(img.filename)); await refresh(); }
                catch (err) { flash(err.message, false); }
            };
            gallery.appendChild(fig);
        });

        const s = document.getElementById('settings-form');
        s.port.value = settings.port;
        s.shutdown_combo.value = (settings.shutdown_combo || []).join('+');
        s.default_image.value = settings.default_image || '';
    }

    document.getElementById('binding-form').addEventListener('submit', async e => {
        e.preventDefault();
        const f = e.target;
        const body = {
            keys: splitKeys(f.keys.value),
            type: f.type.value,
            image: f.image.value,
            description: f.description.value,
            transition_in: transition(f.in_image.value, f.in_duration.value),
            transition_out: transition(f.out_image.value, f.out_duration.value)
        };
        try {
            if (f.id.value) await api('PUT', '/api/keybindings/' + f.id.value, body);
            else await api('POST', '/api/keybindings', body);
            clearForm();
            await refresh();
            flash('Saved', true);
        } catch (err) {
            flash(err.message, false);
        }
    });

    document.getElementById('settings-form').addEventListener('submit', async e => {
        e.preventDefault();
        const f = e.target;
        try {
            const res = await api('PUT', '/api/settings', {
                port: parseInt(f.port.value, 10),
                shutdown_combo: splitKeys(f.shutdown_combo.value),
                default_image: f.default_image.value
            });
            flash(res.reloadRequired ? 'Saved, restart to use the new port' : 'Saved', true);
        } catch (err) {
            flash(err.message, false);
        }
    });

    document.getElementById('upload-form').addEventListener('submit', async e => {
        e.preventDefault();
        const input = e.target.file;
        if (!input.files.length) return;
        const fd = new FormData();
        fd.append('file', input.files[0]);
        try { await api('POST', '/api/images', fd); e.target.reset(); await refresh(); flash('Uploaded', true); }
        catch (err) { flash(err.message, false); }
    });

    document.getElementById('cancel-edit').onclick = clearForm;
    document.getElementById('reload').onclick = async () => {
        try { await api('POST', '/api/reload'); await refresh(); flash('Reloaded', true); }
        catch (err) { flash(err.message, false); }
    };
    document.getElementById('restart').onclick = async () => {
        try { await api('POST', '/api/server/restart'); flash('Restarting...', true); setTimeout(() => location.reload(), 3000); }
        catch (err) { flash(err.message, false); }
    };

    refresh().catch(err => flash(err.message, false));
})();
</script>
</body>
</html>
`))
