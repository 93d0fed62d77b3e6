package static

var (
	Part1 = `
    <!DOCTYPE html>
    <html>
    <head>
        <title>Hydromesh preview</title>
		<style>
			body {
				background-color: #1F1F1F;
				color: #d3d3d3;
				font-family: Consolas, monospace;
				overflow: hidden;
			}

			#container {
				display: flex;
				width: 100%;
				height: 100vh;
				box-sizing: border-box;
			}

			#left-container {
				width: 60%;
				padding: 10px;
				box-sizing: border-box;
				overflow-y: auto;
			}

			#right-container {
				width: 40%;
				padding: 10px;
				box-sizing: border-box;
				border-left: 5px solid #757575;
				overflow-y: auto;
				overflow-x: auto;
				background-color: #1e1e1e;
			}

			#logs {
				white-space: pre-wrap;
				word-wrap: break-word;
				color: #d3d3d3;
				font-family: Consolas, monospace;
			}

			input[type="number"],
			select,
			input[type="submit"] {
				background-color: #2b2b2b;
				color: #d3d3d3;
				border: 1px solid #444;
				padding: 5px;
				margin: 5px 0;
				border-radius: 4px;
			}

			label {
				color: #d3d3d3;
			}

			h1 {
				color: #d3d3d3;
			}

			input[type="submit"]:hover {
				background-color: #444;
				cursor: pointer;
			}

			::-webkit-scrollbar {
				width: 8px;
			}

			::-webkit-scrollbar-thumb {
				background-color: #444;
				border-radius: 10px;
			}

			::-webkit-scrollbar-track {
				background-color: #2b2b2b;
			}
        </style>
    </head>
    <body>
        <div id="container">
            <div id="left-container">
                <h1>Watershed mesh</h1>
    `

	// Form is only rendered by the preview server. Field names match the
	// overrides read by its handler.
	Form = `
                <form id="mesh-form" method="POST">
                    <label for="threshold">Segment threshold, m:</label>
                    <input type="number" id="threshold" name="threshold" value="400" min="1" step="any">
                    <label for="distance">River point distance, m:</label>
                    <input type="number" id="distance" name="distance" value="100" min="1" step="any"><br>
                    <label for="min_spacing">Min spacing, m:</label>
                    <input type="number" id="min_spacing" name="min_spacing" value="50" min="1" step="any">
                    <label for="stride">Grid stride:</label>
                    <input type="number" id="stride" name="stride" value="8" min="1" max="500"><br>
                    <label for="adjacency">Adjacency:</label>
                    <select id="adjacency" name="adjacency">
                        <option value="ridge">ridge</option>
                        <option value="vertex">vertex</option>
                    </select>
                    <input type="submit" value="Build">
                </form>
    `

	Part2 = `
            </div>
            <div id="right-container">
                <h1>Logs</h1>
                <div id="logs">`

	Part3 = `
                </div>
            </div>
        </div>
    `

	Script = `
        <script>
            document.getElementById('mesh-form').addEventListener('submit', function (e) {
                e.preventDefault();
                const formData = new FormData(this);
                const params = new URLSearchParams(formData).toString();

                fetch('/', {
                    method: 'POST',
                    body: params,
                    headers: {
                        'Content-Type': 'application/x-www-form-urlencoded'
                    }
                })
                .then(response => {
                    if (!response.ok) {
                        throw new Error('mesh build failed');
                    }
                    return response.text();
                })
                .then(html => {
                    document.open();
                    document.write(html);
                    document.close();
                })
                .catch(error => {
                    console.error('Error:', error);
                });
            });
        </script>
    `

	End = `
    </body>
    </html>
    `
)
