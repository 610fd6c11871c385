package media

// PlaceholderSVG is served for the placeholder reference and for references
// to missing files.
const PlaceholderSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg width="800" height="600" xmlns="http://www.w3.org/2000/svg">
  <rect width="800" height="600" fill="#1a1a1a"/>
  <text x="400" y="280" font-family="Arial, sans-serif" font-size="32"
        fill="#666" text-anchor="middle">No image configured</text>
  <text x="400" y="330" font-family="Arial, sans-serif" font-size="18"
        fill="#444" text-anchor="middle">Pick a default image in the settings</text>
</svg>`
