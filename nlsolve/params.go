package nlsolve

import (
	"sort"

	"github.com/scottlawsonbc/reconstruct/residual"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// paramMap assigns a global packed-vector index to every free camera and
// world-point component, in deterministic (sorted-id) order, so the same
// scene packs identically every solve.
type paramMap struct {
	cameraIdx map[scene.ViewpointID]residual.CameraParamIndex
	pointIdx  map[scene.PointID][3]int
	size      int
}

var lockedCamera = residual.CameraParamIndex{
	QW: residual.Locked, QX: residual.Locked, QY: residual.Locked, QZ: residual.Locked,
	PX: residual.Locked, PY: residual.Locked, PZ: residual.Locked,
	Fx: residual.Locked, Fy: residual.Locked, Cx: residual.Locked, Cy: residual.Locked,
	K1: residual.Locked, K2: residual.Locked, K3: residual.Locked, P1: residual.Locked, P2: residual.Locked,
}

func buildParamMap(s *scene.Scene, opt Options) *paramMap {
	pm := &paramMap{
		cameraIdx: make(map[scene.ViewpointID]residual.CameraParamIndex),
		pointIdx:  make(map[scene.PointID][3]int),
	}
	next := 0
	alloc := func() int {
		idx := next
		next++
		return idx
	}

	for _, id := range sortedViewpointIDs(s) {
		v := s.Viewpoints[id]
		if !v.Initialized || opt.LockedCameras[id] {
			pm.cameraIdx[id] = lockedCamera
			continue
		}
		idx := residual.CameraParamIndex{
			QW: alloc(), QX: alloc(), QY: alloc(), QZ: alloc(),
			PX: alloc(), PY: alloc(), PZ: alloc(),
			Fx: residual.Locked, Fy: residual.Locked, Cx: residual.Locked, Cy: residual.Locked,
			K1: residual.Locked, K2: residual.Locked, K3: residual.Locked, P1: residual.Locked, P2: residual.Locked,
		}
		if opt.OptimizeIntrinsics {
			idx.Fx, idx.Fy = alloc(), alloc()
			idx.Cx, idx.Cy = alloc(), alloc()
			idx.K1, idx.K2, idx.K3 = alloc(), alloc(), alloc()
			idx.P1, idx.P2 = alloc(), alloc()
		}
		pm.cameraIdx[id] = idx
	}

	for _, id := range sortedPointIDs(s) {
		p := s.WorldPoints[id]
		_, anchored := p.EffectiveXYZ()
		var axes [3]int
		for i, fixed := range anchored {
			if fixed {
				axes[i] = residual.Locked
			} else {
				axes[i] = alloc()
			}
		}
		pm.pointIdx[id] = axes
	}

	pm.size = next
	return pm
}

func (pm *paramMap) cameraParams(v scene.Viewpoint, id scene.ViewpointID) residual.CameraParams {
	ci := v.Intrinsics()
	return residual.NewCameraParams(v.Rotation, v.Position, ci.Fx, ci.Fy, v.PrincipalPoint,
		v.K1, v.K2, v.K3, v.P1, v.P2, pm.cameraIdx[id])
}

func (pm *paramMap) pointParams(p scene.WorldPoint, id scene.PointID) residual.PointParams {
	idx := pm.pointIdx[id]
	pos, _ := p.EffectiveXYZ()
	return residual.NewPointParams(pos, idx[0], idx[1], idx[2])
}

func sortedViewpointIDs(s *scene.Scene) []scene.ViewpointID {
	ids := make([]scene.ViewpointID, 0, len(s.Viewpoints))
	for id := range s.Viewpoints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedPointIDs(s *scene.Scene) []scene.PointID {
	ids := make([]scene.PointID, 0, len(s.WorldPoints))
	for id := range s.WorldPoints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedConstraintIDs(s *scene.Scene) []scene.ConstraintID {
	ids := make([]scene.ConstraintID, 0, len(s.Constraints))
	for id := range s.Constraints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
