package ui

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04:05")
	},
	"formatTimePtr": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04:05")
	},
	"formatDate": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"add": func(a, b int) int {
		return a + b
	},
	"sub": func(a, b int) int {
		return a - b
	},
	"seq": func(n int) []int {
		result := make([]int, n)
		for i := range result {
			result[i] = i
		}
		return result
	},
	"truncate": func(s string, n int) string {
		if len(s) <= n {
			return s
		}
		return s[:n] + "..."
	},
	"urlquery": func(s string) string {
		return template.URLQueryEscaper(s)
	},
	"statusColor": func(status string) string {
		if strings.EqualFold(status, "Active") {
			return "bg-green-100 text-green-800"
		}
		return "bg-gray-100 text-gray-600"
	},
}

// renderTemplate renders a template with the given data.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	_, err = tmpl.New("content").Parse(content)
	if err != nil {
		return fmt.Errorf("parse content: %w", err)
	}

	// Add shared components.
	for compName, compContent := range templates {
		if strings.HasPrefix(compName, "components/") {
			_, err = tmpl.New(filepath.Base(compName)).Parse(compContent)
			if err != nil {
				return fmt.Errorf("parse component %s: %w", compName, err)
			}
		}
	}

	return tmpl.Execute(w, data)
}

// templates holds all template content. In a production app, these would be
// loaded from files or generated by templ.
var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50 min-h-screen">
    {{if .Session}}
    <nav class="bg-white shadow-sm border-b">
        <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8">
            <div class="flex justify-between h-16">
                <div class="flex">
                    <a href="/dashboard" class="flex items-center px-2 py-2 text-xl font-bold text-indigo-600">
                        PetMS
                    </a>
                    <div class="hidden sm:ml-6 sm:flex sm:space-x-8">
                        <a href="/dashboard" class="border-transparent text-gray-500 hover:border-gray-300 hover:text-gray-700 inline-flex items-center px-1 pt-1 border-b-2 text-sm font-medium">
                            Dashboard
                        </a>
                        <a href="/owners" class="border-transparent text-gray-500 hover:border-gray-300 hover:text-gray-700 inline-flex items-center px-1 pt-1 border-b-2 text-sm font-medium">
                            Owners
                        </a>
                    </div>
                </div>
                <div class="flex items-center space-x-4">
                    <span class="text-sm text-gray-500">{{.Session.Username}} ({{.Session.Role}})</span>
                    <a href="/logout" class="text-sm text-gray-500 hover:text-gray-700">Logout</a>
                </div>
            </div>
        </div>
    </nav>
    <script>
        // Listen for server pushes on this session. A forceLogout event means
        // a newer login took over the account on another device.
        (function () {
            var source = new EventSource("/api/v1/events");
            source.addEventListener("forceLogout", function (e) {
                source.close();
                var message = "You have been logged in from another device.";
                try { message = JSON.parse(e.data).message || message; } catch (err) {}
                window.location.href = "/login?error=" + encodeURIComponent(message);
            });
            source.onerror = function () {
                // Stream closed (displacement, logout, or server restart).
                source.close();
            };
        })();
    </script>
    {{end}}
    <main class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8 py-8">
        {{template "content" .}}
    </main>
</body>
</html>`,

	"login": `<div class="max-w-md mx-auto mt-16 bg-white rounded-lg shadow p-8">
    <h1 class="text-2xl font-bold text-gray-900 mb-6 text-center">PetMS Login</h1>
    {{if .Error}}
    <div class="mb-4 p-3 rounded bg-red-50 text-red-700 text-sm">{{.Error}}</div>
    {{end}}
    {{if .Info}}
    <div class="mb-4 p-3 rounded bg-green-50 text-green-700 text-sm">{{.Info}}</div>
    {{end}}
    <form method="POST" action="/login" class="space-y-4">
        <div>
            <label class="block text-sm font-medium text-gray-700 mb-1" for="username">Username</label>
            <input type="text" id="username" name="username" required autofocus
                   class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm focus:ring-indigo-500 focus:border-indigo-500">
        </div>
        <div>
            <label class="block text-sm font-medium text-gray-700 mb-1" for="password">Password</label>
            <input type="password" id="password" name="password" required
                   class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm focus:ring-indigo-500 focus:border-indigo-500">
        </div>
        <button type="submit"
                class="w-full bg-indigo-600 text-white rounded-md py-2 text-sm font-medium hover:bg-indigo-700">
            Login
        </button>
    </form>
    <p class="mt-4 text-center text-sm text-gray-500">
        No account? <a href="/register" class="text-indigo-600 hover:text-indigo-800">Register</a>
    </p>
</div>`,

	"register": `<div class="max-w-md mx-auto mt-16 bg-white rounded-lg shadow p-8">
    <h1 class="text-2xl font-bold text-gray-900 mb-6 text-center">Create Account</h1>
    {{if .Error}}
    <div class="mb-4 p-3 rounded bg-red-50 text-red-700 text-sm">{{.Error}}</div>
    {{end}}
    <form method="POST" action="/register" class="space-y-4">
        <div>
            <label class="block text-sm font-medium text-gray-700 mb-1" for="username">Username</label>
            <input type="text" id="username" name="username" value="{{.Username}}" required autofocus
                   class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm focus:ring-indigo-500 focus:border-indigo-500">
        </div>
        <div>
            <label class="block text-sm font-medium text-gray-700 mb-1" for="password">Password</label>
            <input type="password" id="password" name="password" required minlength="6"
                   class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm focus:ring-indigo-500 focus:border-indigo-500">
        </div>
        <div>
            <label class="block text-sm font-medium text-gray-700 mb-1" for="confirmPassword">Confirm Password</label>
            <input type="password" id="confirmPassword" name="confirmPassword" required minlength="6"
                   class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm focus:ring-indigo-500 focus:border-indigo-500">
        </div>
        <button type="submit"
                class="w-full bg-indigo-600 text-white rounded-md py-2 text-sm font-medium hover:bg-indigo-700">
            Register
        </button>
    </form>
    <p class="mt-4 text-center text-sm text-gray-500">
        Already registered? <a href="/login" class="text-indigo-600 hover:text-indigo-800">Login</a>
    </p>
</div>`,

	"dashboard": `<div class="mb-8">
    <h1 class="text-2xl font-bold text-gray-900">Dashboard</h1>
    <p class="text-sm text-gray-500 mt-1">Welcome back, {{.Session.Username}}.</p>
</div>

<div class="grid grid-cols-1 sm:grid-cols-3 gap-4 mb-8">
    <div class="bg-white rounded-lg shadow p-6">
        <div class="text-sm text-gray-500">Registered Owners</div>
        <div class="text-3xl font-bold text-gray-900 mt-1">{{.OwnerCount}}</div>
    </div>
    <div class="bg-white rounded-lg shadow p-6">
        <div class="text-sm text-gray-500">Active (recent)</div>
        <div class="text-3xl font-bold text-green-600 mt-1">{{.ActiveRecent}}</div>
    </div>
    <div class="bg-white rounded-lg shadow p-6">
        <div class="text-sm text-gray-500">Server Uptime</div>
        <div class="text-3xl font-bold text-gray-900 mt-1">{{.Uptime}}</div>
    </div>
</div>

<div class="bg-white rounded-lg shadow">
    <div class="px-6 py-4 border-b flex items-center justify-between">
        <h2 class="text-lg font-semibold text-gray-900">Recent Owners</h2>
        <a href="/owners/new" class="bg-indigo-600 text-white rounded-md px-4 py-2 text-sm font-medium hover:bg-indigo-700">Add Owner</a>
    </div>
    {{if .RecentOwners}}
    <table class="min-w-full divide-y divide-gray-200">
        <thead class="bg-gray-50">
            <tr>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Name</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Email</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Phone</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Status</th>
            </tr>
        </thead>
        <tbody class="divide-y divide-gray-200">
            {{range .RecentOwners}}
            <tr>
                <td class="px-6 py-4 text-sm text-gray-900">{{.FullName}}</td>
                <td class="px-6 py-4 text-sm text-gray-500">{{.Email}}</td>
                <td class="px-6 py-4 text-sm text-gray-500">{{.Phone}}</td>
                <td class="px-6 py-4 text-sm">
                    <span class="px-2 py-1 rounded-full text-xs font-medium {{statusColor (printf "%s" .Status)}}">{{.Status}}</span>
                </td>
            </tr>
            {{end}}
        </tbody>
    </table>
    {{else}}
    <div class="px-6 py-8 text-center text-sm text-gray-500">No owners yet.</div>
    {{end}}
</div>`,

	"owners_list": `<div class="mb-6 flex items-center justify-between">
    <h1 class="text-2xl font-bold text-gray-900">Owners</h1>
    <a href="/owners/new" class="bg-indigo-600 text-white rounded-md px-4 py-2 text-sm font-medium hover:bg-indigo-700">Add Owner</a>
</div>

{{if .Error}}
<div class="mb-4 p-3 rounded bg-red-50 text-red-700 text-sm">{{.Error}}</div>
{{end}}
{{if .Success}}
<div class="mb-4 p-3 rounded bg-green-50 text-green-700 text-sm">{{.Success}}</div>
{{end}}

<form method="GET" action="/owners" class="mb-6 flex gap-2">
    <input type="text" name="search" value="{{.Search}}" placeholder="Search name, email, phone, ref..."
           class="flex-1 border border-gray-300 rounded-md px-3 py-2 text-sm focus:ring-indigo-500 focus:border-indigo-500">
    <input type="hidden" name="limit" value="{{.Limit}}">
    <button type="submit" class="bg-gray-800 text-white rounded-md px-4 py-2 text-sm font-medium hover:bg-gray-700">Search</button>
    {{if .Search}}
    <a href="/owners" class="rounded-md px-4 py-2 text-sm font-medium text-gray-600 border border-gray-300 hover:bg-gray-100">Clear</a>
    {{end}}
</form>

<div class="bg-white rounded-lg shadow overflow-hidden">
    {{if .Owners}}
    <table class="min-w-full divide-y divide-gray-200">
        <thead class="bg-gray-50">
            <tr>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Photo</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Ref</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Name</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Email</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Phone</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Status</th>
                <th class="px-6 py-3 text-right text-xs font-medium text-gray-500 uppercase">Actions</th>
            </tr>
        </thead>
        <tbody class="divide-y divide-gray-200">
            {{range .Owners}}
            <tr>
                <td class="px-6 py-4">
                    {{if .PhotoFile}}
                    <img src="/uploads/{{.PhotoFile}}" alt="" class="h-10 w-10 rounded-full object-cover">
                    {{else}}
                    <div class="h-10 w-10 rounded-full bg-gray-200"></div>
                    {{end}}
                </td>
                <td class="px-6 py-4 text-sm font-mono text-gray-500">{{.OwnerRef}}</td>
                <td class="px-6 py-4 text-sm text-gray-900">{{.FullName}}</td>
                <td class="px-6 py-4 text-sm text-gray-500">{{.Email}}</td>
                <td class="px-6 py-4 text-sm text-gray-500">{{.Phone}}</td>
                <td class="px-6 py-4 text-sm">
                    <span class="px-2 py-1 rounded-full text-xs font-medium {{statusColor (printf "%s" .Status)}}">{{.Status}}</span>
                </td>
                <td class="px-6 py-4 text-sm text-right space-x-2">
                    <a href="/owners/{{.ID}}/edit" class="text-indigo-600 hover:text-indigo-800">Edit</a>
                    <form method="POST" action="/owners/{{.ID}}/delete" class="inline"
                          onsubmit="return confirm('Delete {{.FullName}}?');">
                        <button type="submit" class="text-red-600 hover:text-red-800">Delete</button>
                    </form>
                </td>
            </tr>
            {{end}}
        </tbody>
    </table>
    {{else}}
    <div class="px-6 py-8 text-center text-sm text-gray-500">
        {{if .Search}}No owners match "{{.Search}}".{{else}}No owners yet.{{end}}
    </div>
    {{end}}
</div>

{{if gt .TotalPages 1}}
<div class="mt-6 flex items-center justify-between text-sm text-gray-600">
    <div>Page {{.CurrentPage}} of {{.TotalPages}} ({{.TotalRecords}} records)</div>
    <div class="space-x-2">
        {{if gt .CurrentPage 1}}
        <a href="/owners?page={{sub .CurrentPage 1}}&limit={{.Limit}}{{if .Search}}&search={{urlquery .Search}}{{end}}"
           class="px-3 py-1 border border-gray-300 rounded hover:bg-gray-100">Previous</a>
        {{end}}
        {{if lt .CurrentPage .TotalPages}}
        <a href="/owners?page={{add .CurrentPage 1}}&limit={{.Limit}}{{if .Search}}&search={{urlquery .Search}}{{end}}"
           class="px-3 py-1 border border-gray-300 rounded hover:bg-gray-100">Next</a>
        {{end}}
    </div>
</div>
{{end}}`,

	"owner_form": `<div class="max-w-2xl mx-auto">
    <h1 class="text-2xl font-bold text-gray-900 mb-6">{{if .Edit}}Edit Owner{{else}}Add Owner{{end}}</h1>

    {{if .Error}}
    <div class="mb-4 p-3 rounded bg-red-50 text-red-700 text-sm">{{.Error}}</div>
    {{end}}

    <form method="POST" action="{{if .Edit}}/owners/{{.Owner.ID}}{{else}}/owners{{end}}"
          enctype="multipart/form-data" class="bg-white rounded-lg shadow p-6 space-y-4">

        <div class="grid grid-cols-1 sm:grid-cols-2 gap-4">
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">First Name *</label>
                <input type="text" name="firstName" value="{{.Owner.FirstName}}" required
                       class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
            </div>
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">Last Name *</label>
                <input type="text" name="lastName" value="{{.Owner.LastName}}" required
                       class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
            </div>
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">Gender</label>
                <select name="gender" class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
                    <option value="Male" {{if eq .Owner.Gender "Male"}}selected{{end}}>Male</option>
                    <option value="Female" {{if eq .Owner.Gender "Female"}}selected{{end}}>Female</option>
                    <option value="Prefer not to say" {{if eq .Owner.Gender "Prefer not to say"}}selected{{end}}>Prefer not to say</option>
                </select>
            </div>
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">Birthdate</label>
                <input type="date" name="birthdate" value="{{formatDate .Owner.Birthdate}}"
                       class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
            </div>
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">Civil Status</label>
                <select name="civilStatus" class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
                    <option value="Single" {{if eq .Owner.CivilStatus "Single"}}selected{{end}}>Single</option>
                    <option value="Married" {{if eq .Owner.CivilStatus "Married"}}selected{{end}}>Married</option>
                    <option value="Divorced" {{if eq .Owner.CivilStatus "Divorced"}}selected{{end}}>Divorced</option>
                    <option value="Widowed" {{if eq .Owner.CivilStatus "Widowed"}}selected{{end}}>Widowed</option>
                    <option value="Other" {{if eq .Owner.CivilStatus "Other"}}selected{{end}}>Other</option>
                </select>
            </div>
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">Status</label>
                <select name="status" class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
                    <option value="Active" {{if eq (printf "%s" .Owner.Status) "Active"}}selected{{end}}>Active</option>
                    <option value="Inactive" {{if eq (printf "%s" .Owner.Status) "Inactive"}}selected{{end}}>Inactive</option>
                </select>
            </div>
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">Email *</label>
                <input type="email" name="email" value="{{.Owner.Email}}" required
                       class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
            </div>
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">Phone *</label>
                <input type="text" name="phone" value="{{.Owner.Phone}}" required
                       class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
            </div>
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">Alternate Phone</label>
                <input type="text" name="phone2" value="{{.Owner.Phone2}}"
                       class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
            </div>
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">Address</label>
                <input type="text" name="address" value="{{.Owner.Address}}"
                       class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
            </div>
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">Emergency Contact Person</label>
                <input type="text" name="emergencyContactPerson" value="{{.Owner.EmergencyContactPerson}}"
                       class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
            </div>
            <div>
                <label class="block text-sm font-medium text-gray-700 mb-1">Emergency Contact Number</label>
                <input type="text" name="emergencyContactNumber" value="{{.Owner.EmergencyContactNumber}}"
                       class="w-full border border-gray-300 rounded-md px-3 py-2 text-sm">
            </div>
        </div>

        <div class="border-t pt-4">
            <label class="block text-sm font-medium text-gray-700 mb-1">Photo</label>
            {{if .Owner.PhotoFile}}
            <div class="flex items-center gap-3 mb-2">
                <img src="/uploads/{{.Owner.PhotoFile}}" alt="" class="h-16 w-16 rounded-full object-cover">
                <label class="text-sm text-gray-600">
                    <input type="checkbox" name="deleteImage" value="true"> Remove current photo
                </label>
            </div>
            {{end}}
            <input type="file" name="photo" accept="image/*" class="text-sm text-gray-600">
            <input type="hidden" name="cameraImage" id="cameraImage" value="">
            <div class="mt-2">
                <button type="button" id="cameraBtn" class="text-sm text-indigo-600 hover:text-indigo-800">Use camera</button>
                <video id="cameraPreview" class="hidden mt-2 rounded w-64" autoplay playsinline></video>
                <canvas id="cameraCanvas" class="hidden"></canvas>
            </div>
        </div>

        <div class="flex justify-end gap-2 pt-2">
            <a href="/owners" class="rounded-md px-4 py-2 text-sm font-medium text-gray-600 border border-gray-300 hover:bg-gray-100">Cancel</a>
            <button type="submit" class="bg-indigo-600 text-white rounded-md px-4 py-2 text-sm font-medium hover:bg-indigo-700">
                {{if .Edit}}Save Changes{{else}}Create Owner{{end}}
            </button>
        </div>
    </form>
</div>

<script>
    // Camera capture: snapshot goes into the hidden cameraImage field as a
    // base64 data URI; the server decodes and stores it like a file upload.
    (function () {
        var btn = document.getElementById("cameraBtn");
        var video = document.getElementById("cameraPreview");
        var canvas = document.getElementById("cameraCanvas");
        var field = document.getElementById("cameraImage");
        var stream = null;

        btn.addEventListener("click", function () {
            if (!stream) {
                navigator.mediaDevices.getUserMedia({ video: true }).then(function (s) {
                    stream = s;
                    video.srcObject = s;
                    video.classList.remove("hidden");
                    btn.textContent = "Capture photo";
                }).catch(function () {
                    btn.textContent = "Camera unavailable";
                });
                return;
            }
            canvas.width = video.videoWidth;
            canvas.height = video.videoHeight;
            canvas.getContext("2d").drawImage(video, 0, 0);
            field.value = canvas.toDataURL("image/png");
            stream.getTracks().forEach(function (t) { t.stop(); });
            stream = null;
            video.classList.add("hidden");
            btn.textContent = "Photo captured (click to retake)";
        });
    })();
</script>`,

	"error": `<div class="max-w-md mx-auto mt-16 bg-white rounded-lg shadow p-8 text-center">
    <h1 class="text-2xl font-bold text-red-600 mb-4">Something went wrong</h1>
    <p class="text-sm text-gray-600 mb-6">{{.Message}}</p>
    <a href="/dashboard" class="text-indigo-600 hover:text-indigo-800 text-sm">Back to dashboard</a>
</div>`,
}
