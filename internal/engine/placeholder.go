package engine

// resolve recomputes the drop target for the current pointer position and
// moves the placeholders when the resolved (target, position) pair changed.
// Invalid targets keep the last valid placement; the drag itself never
// aborts, the worst outcome of a bad hover is that nothing moves.
func (d *DragController) resolve() {
	s := d.s
	ensureLayout(d.graph)
	pt := d.canvasPoint()
	hits := HitTest(d.graph, pt, s.exclude)

	if s.source == SourceAbsolute {
		d.resolveAbsolute(pt, hits)
		return
	}
	d.resolveFlow(pt, hits)
}

// resolveFlow applies the reorder rules for flow-positioned drags: midpoint
// rule against the anchor under the pointer, nearest-child fallback over
// container padding, free root placement over open canvas.
func (d *DragController) resolveFlow(pt Point, hits []string) {
	s := d.s
	if len(hits) == 0 {
		d.placeOnRoot(pt)
		return
	}
	anchor := d.graph.Node(hits[0])
	if anchor == nil {
		return
	}
	if anchor.Locked {
		return
	}
	if !d.inScope(anchor) {
		return
	}

	if anchor.IsContainer() {
		if FlowChildCount(anchor) == 0 {
			d.applyPlacement(placement{targetID: anchor.ID, position: PositionInside}, pt)
			return
		}
		// Pointer sits over the container's padding or gap. Re-entering
		// the home root restores the remembered spot instead of the
		// nearest-child default.
		if m := d.reentryPlacement(anchor); m != nil {
			d.applyPlacement(*m, pt)
			return
		}
		child, pos := d.nearestFlowChild(anchor, pt)
		if child == nil {
			d.applyPlacement(placement{targetID: anchor.ID, position: PositionInside}, pt)
			return
		}
		d.applyPlacement(placement{targetID: child.ID, position: pos}, pt)
		return
	}

	// Absolutely positioned nodes never anchor a before/after insertion.
	if anchor.AbsoluteInFrame {
		return
	}
	parent := anchor.Parent
	if parent == nil {
		return
	}
	if parent.Locked {
		return
	}
	if parent == d.graph.Root {
		// A root-level leaf under the pointer still means open canvas.
		d.placeOnRoot(pt)
		return
	}
	axis := parent.Axis()
	pos := DropPosition(pt, anchor, axis, s.dir.Bias(axis))
	d.applyPlacement(placement{targetID: anchor.ID, position: pos}, pt)
}

// resolveAbsolute keeps an absolutely positioned drag absolute: the innermost
// container under the pointer becomes the owning frame and the placeholder
// tracks the pointer as a frame-relative offset. Open canvas converts the
// drop to free root placement.
func (d *DragController) resolveAbsolute(pt Point, hits []string) {
	s := d.s
	var frame *Node
	for _, id := range hits {
		n := d.graph.Node(id)
		if n == nil || !n.IsContainer() {
			continue
		}
		if n.Locked {
			return
		}
		frame = n
		break
	}
	if frame == nil {
		d.placeOnRoot(pt)
		return
	}
	if !d.inScope(frame) {
		return
	}

	p := placement{targetID: frame.ID, position: PositionInside}
	if s.applied == nil || *s.applied != p {
		d.movePlaceholders(p, frame.ID)
		d.recordPlacement(p, frame.ID)
	}
	for i := range s.nodes {
		dn := &s.nodes[i]
		dn.ph.AbsoluteInFrame = true
		dn.ph.Layout.X = pt.X - dn.offset.X - frame.Bounds.X
		dn.ph.Layout.Y = pt.Y - dn.offset.Y - frame.Bounds.Y
	}
	d.graph.MarkDirty()
	s.drop = &DropInfo{TargetID: frame.ID, Position: PositionInside, CanvasX: pt.X, CanvasY: pt.Y}
	s.indicator = nil
}

// placeOnRoot parks the placeholders at canvas-root level: releasing here
// drops the nodes as free canvas elements at the pointer. Confined drags may
// not leave their viewport and keep their last placement instead.
func (d *DragController) placeOnRoot(pt Point) {
	s := d.s
	if s.confined {
		return
	}
	root := d.graph.Root
	p := placement{targetID: root.ID, position: PositionInside}
	if s.applied == nil || *s.applied != p {
		d.movePlaceholders(p, root.ID)
		d.recordPlacement(p, root.ID)
	}
	// Free placement tracks the pointer continuously.
	for i := range s.nodes {
		dn := &s.nodes[i]
		dn.ph.AbsoluteInFrame = false
		dn.ph.Layout.X = pt.X - dn.offset.X
		dn.ph.Layout.Y = pt.Y - dn.offset.Y
	}
	d.graph.MarkDirty()
	s.drop = &DropInfo{TargetID: root.ID, Position: PositionInside, CanvasX: pt.X, CanvasY: pt.Y}
	s.indicator = nil
}

// applyPlacement moves the placeholders for a flow placement when it differs
// from the memoized one, then refreshes the drop info and indicator.
func (d *DragController) applyPlacement(p placement, pt Point) {
	s := d.s
	target := d.graph.Node(p.targetID)
	if target == nil {
		return
	}
	containerID := p.targetID
	if p.position != PositionInside {
		if target.Parent == nil {
			return
		}
		containerID = target.Parent.ID
	}

	if s.applied == nil || *s.applied != p {
		d.movePlaceholders(p, containerID)
		d.recordPlacement(p, containerID)
	}

	s.drop = &DropInfo{TargetID: p.targetID, Position: p.position, CanvasX: pt.X, CanvasY: pt.Y}
	if container := d.graph.Node(containerID); container != nil {
		ind := IndicatorFor(target, container.Axis(), p.position)
		s.indicator = &ind
	}
}

// recordPlacement updates the memo, the current container, and, when the
// placement lands inside the home root container, the re-entry memory.
func (d *DragController) recordPlacement(p placement, containerID string) {
	s := d.s
	applied := p
	s.applied = &applied
	s.containerID = containerID
	if s.homeRoot != "" && d.graph.RootContainerOf(containerID) == s.homeRoot {
		mem := p
		s.homeMemory = &mem
	}
}

// movePlaceholders relocates every session placeholder into container,
// contiguously, at the index the placement resolves to. Placeholders are
// detached first so the index is computed against a placeholder-free child
// list; a multi-node bloc therefore lands in original order with no
// interleaving.
func (d *DragController) movePlaceholders(p placement, containerID string) {
	s := d.s
	for i := range s.nodes {
		ph := s.nodes[i].ph
		if d.graph.Has(ph.ID) {
			d.graph.Detach(ph.ID)
		}
	}
	container := d.graph.Node(containerID)
	if container == nil {
		return
	}

	index := len(container.Children)
	if p.position != PositionInside {
		if i := d.graph.IndexIn(containerID, p.targetID); i >= 0 {
			index = i
			if p.position == PositionAfter {
				index++
			}
		}
	}

	for i := range s.nodes {
		dn := &s.nodes[i]
		dn.ph.AbsoluteInFrame = false
		if d.graph.Has(dn.ph.ID) {
			d.graph.Move(dn.ph.ID, containerID, index+i)
		} else {
			d.graph.InsertAt(dn.ph, containerID, index+i)
		}
	}
}

// inScope reports whether target may receive this session's placeholders.
// Viewport-sourced and dynamic drags stay inside their home viewport.
func (d *DragController) inScope(target *Node) bool {
	s := d.s
	if !s.confined {
		return true
	}
	if target.ID == s.homeViewport {
		return true
	}
	return d.graph.ViewportOf(target.ID) == s.homeViewport
}

// reentryPlacement returns the remembered placement when the pointer left the
// home root container and now re-enters it over padding rather than over a
// specific sibling. The memory must still be valid: its target attached and
// still inside the home root.
func (d *DragController) reentryPlacement(container *Node) *placement {
	s := d.s
	if s.homeMemory == nil || s.homeRoot == "" {
		return nil
	}
	if d.graph.RootContainerOf(container.ID) != s.homeRoot {
		return nil
	}
	// Only a genuine re-entry restores: if the placeholders never left the
	// home container, the nearest-child rule stays in charge.
	if s.containerID != "" && d.graph.RootContainerOf(s.containerID) == s.homeRoot {
		return nil
	}
	m := *s.homeMemory
	if m.targetID != s.homeRoot && d.graph.RootContainerOf(m.targetID) != s.homeRoot {
		return nil
	}
	return &m
}

// nearestFlowChild picks the sibling anchor when the pointer sits over a
// container's padding or gap: the flow child nearest the pointer along the
// container axis, with the midpoint deciding the side.
func (d *DragController) nearestFlowChild(container *Node, pt Point) (*Node, Position) {
	axis := container.Axis()
	coord := pt.X
	if axis == AxisColumn {
		coord = pt.Y
	}
	var last *Node
	for _, id := range SiblingOrder(d.graph, container.ID) {
		c := d.graph.Node(id)
		if c == nil {
			continue
		}
		start, extent := c.Bounds.X, c.Bounds.Width
		if axis == AxisColumn {
			start, extent = c.Bounds.Y, c.Bounds.Height
		}
		if coord < start+extent/2 {
			return c, PositionBefore
		}
		last = c
	}
	if last == nil {
		return nil, PositionInside
	}
	return last, PositionAfter
}
