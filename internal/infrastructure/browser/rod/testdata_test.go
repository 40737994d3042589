package rod

// HTML fixtures served to the in-package browser tests.
const (
	NestedHTML = `<!DOCTYPE html>
<html>
<body>
	<button id="save">Save</button>
	<div id="panel">
		<p>
			<span>first</span>
			<span>second</span>
		</p>
	</div>
	<main>
		<section>
			<article>
				<em>deep</em>
			</article>
		</section>
	</main>
</body>
</html>`

	TallHTML = `<!DOCTYPE html>
<html>
<body style="margin: 0; height: 4000px;">
	<h1 id="top">Top</h1>
	<div id="deep" style="margin-top: 3500px;">Deep content</div>
</body>
</html>`

	ControlsHTML = `<!DOCTYPE html>
<html>
<body>
	<a href="/pricing" id="pricing" role="button">See pricing</a>
	<a href="/docs" id="docs">Documentation</a>
	<input id="subscribe" type="submit" value="Subscribe">
</body>
</html>`
)
