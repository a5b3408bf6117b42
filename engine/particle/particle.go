package particle

import "github.com/go-gl/mathgl/mgl32"

// Particle is the host-side record of a single simulated particle.
// Mass, radius and color are carried as given and never validated.
type Particle struct {
	ID           uint32
	Position     mgl32.Vec3
	Velocity     mgl32.Vec3
	Acceleration mgl32.Vec3
	Mass         float32
	Radius       float32
	Color        mgl32.Vec4
}

// GPU converts the particle into its GPU-aligned record.
//
// Returns:
//   - GPUParticle: the record ready for marshaling
func (p Particle) GPU() GPUParticle {
	return GPUParticle{
		Position:     p.Position,
		Mass:         p.Mass,
		Velocity:     p.Velocity,
		Radius:       p.Radius,
		Acceleration: p.Acceleration,
		ID:           p.ID,
		Color:        p.Color,
	}
}

// FromGPU converts a GPU record back into a host-side particle.
//
// Parameters:
//   - g: the decoded GPU record
//
// Returns:
//   - Particle: the host-side particle
func FromGPU(g GPUParticle) Particle {
	return Particle{
		ID:           g.ID,
		Position:     g.Position,
		Velocity:     g.Velocity,
		Acceleration: g.Acceleration,
		Mass:         g.Mass,
		Radius:       g.Radius,
		Color:        g.Color,
	}
}
