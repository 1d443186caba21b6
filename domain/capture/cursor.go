package capture

// selectCursorShape picks what to record from a snapshot. A color bitmap
// wins. A mask is only usable when it holds both AND and XOR halves, i.e. it
// is taller than wide.
func selectCursorShape(s CursorSnapshot) (CursorShape, bool) {
	shape := CursorShape{XHotspot: int32(s.XHotspot), YHotspot: int32(s.YHotspot)}
	switch {
	case s.Color != nil && s.Color.Height > 0 && len(s.Color.Pixels) > 0:
		shape.Type = CursorColor
		shape.Width = int32(s.Color.Width)
		shape.Height = int32(s.Color.Height)
		shape.Pixels = s.Color.Pixels
	case s.Mask != nil && s.Mask.Height > s.Mask.Width && len(s.Mask.Pixels) > 0:
		shape.Type = CursorMask
		shape.Width = int32(s.Mask.Width)
		shape.Height = int32(s.Mask.Height)
		shape.Pixels = s.Mask.Pixels
	default:
		return CursorShape{}, false
	}
	return shape, true
}
