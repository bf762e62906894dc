package dashboard

// Page templates filled in via fmt.Sprintf. Chart iframes point at the
// /charts endpoints so each chart renders its own document.

const pageStyle = `<style>
  body { font-family: sans-serif; margin: 2rem; color: #222; }
  nav a { margin-right: 1rem; }
  .cards { display: flex; gap: 1rem; margin: 1rem 0; }
  .card { border: 1px solid #ccc; border-radius: 6px; padding: 1rem 2rem; text-align: center; }
  .card .value { font-size: 1.6rem; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 1rem; }
  th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; font-size: 0.85rem; }
  th { background: #f0f0f0; }
  iframe { border: none; width: 720px; height: 520px; }
</style>`

const navHTML = `<nav><a href="/">Overview</a><a href="/performance">Model Performance</a><a href="/data">Data Preview</a></nav>`

const overviewHTML = `<!DOCTYPE html>
<html><head><title>Transit Delay Analytics</title>` + pageStyle + `</head>
<body>
` + navHTML + `
<h1>Transit Delay Analytics</h1>
<p>Vehicle positions joined with local weather, feeding a random-forest delay model.</p>
<h2>Pipeline status</h2>
<ul>
  <li>Processed data: %s</li>
  <li>Trained model: %s</li>
</ul>
</body></html>`

const performanceHTML = `<!DOCTYPE html>
<html><head><title>Model Performance</title>` + pageStyle + `</head>
<body>
` + navHTML + `
<h1>Model Performance</h1>
<div class="cards">
  <div class="card"><div>MAE</div><div class="value">%s</div></div>
  <div class="card"><div>RMSE</div><div class="value">%s</div></div>
  <div class="card"><div>R&sup2;</div><div class="value">%s</div></div>
</div>
%s
<iframe src="/charts/predictions"></iframe>
<iframe src="/charts/importances"></iframe>
</body></html>`

const dataHTML = `<!DOCTYPE html>
<html><head><title>Data Preview</title>` + pageStyle + `</head>
<body>
` + navHTML + `
<h1>Data Preview</h1>
<p>%s</p>
<table>
%s</table>
</body></html>`

const messageHTML = `<!DOCTYPE html>
<html><head><title>%s</title>` + pageStyle + `</head>
<body>
` + navHTML + `
<h1>%[1]s</h1>
<p>%s</p>
</body></html>`
