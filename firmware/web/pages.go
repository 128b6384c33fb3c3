//go:build !tinygo

package web

const indexHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Top Five for Today</title>
  </head>
  <body>
    <div class="status">{{.Network}} &middot; {{.URL}} &middot; showing {{.Screen}}</div>
    <h1>Top Five for Today</h1>
    <p>Focus on what matters most. One step at a time.</p>

    <form action="/submit" method="POST">
      {{range .Tasks}}
        Task {{inc .Index}}: <input type="text" name="task{{.Index}}" value="{{.Text}}" maxlength="15"><br>
      {{end}}
      <input type="submit" value="Update Tasks">
    </form>

    <form action="/reset" method="POST"><input type="submit" value="Reset Tasks"></form>
    <form action="/sleep" method="POST"><input type="submit" value="Sleep Now"></form>
    <form action="/welcome" method="POST"><input type="submit" value="Show Welcome"></form>

    <form action="/style" method="POST">
      Background Color: <select name="bg">
        {{range .Colors}}<option value="{{.}}"{{if eq . $.Background}} selected{{end}}>{{.}}</option>{{end}}
      </select><br>
      Text Color: <select name="text">
        {{range .Colors}}<option value="{{.}}"{{if eq . $.Foreground}} selected{{end}}>{{.}}</option>{{end}}
      </select><br>
      <input type="submit" value="Update Style">
    </form>

    <form action="/toggle" method="POST">
      Mark task as done: <select name="task">
        {{range .Tasks}}<option value="{{.Index}}">{{if .Text}}{{.Text}}{{else}}(empty){{end}}{{if .Completed}} &#10003;{{end}}</option>{{end}}
      </select>
      <input type="submit" value="Toggle Completion">
    </form>
  </body>
</html>
`

const noteHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta http-equiv="refresh" content="2;url=/" />
    <title>{{.Title}}</title>
  </head>
  <body>
    <h1>{{.Title}}</h1>
    <p>{{.Body}}</p>
  </body>
</html>
`
