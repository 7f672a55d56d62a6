package action

import (
	"context"

	"github.com/chromedp/chromedp"
)

// Click clicks at the given viewport coordinates.
func Click(ctx context.Context, x, y float64) error {
	return chromedp.Run(ctx, chromedp.MouseClickXY(x, y, chromedp.ButtonLeft))
}

// PressKey dispatches key to the page, for instance kb.ArrowRight. The event
// targets the document even when no element has focus.
func PressKey(ctx context.Context, key string) error {
	return chromedp.Run(ctx, chromedp.KeyEvent(key))
}
