package bind_group_provider

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithVertexCount sets the number of vertices drawn per instance.
//
// Parameters:
//   - count: the vertex count
//
// Returns:
//   - BindGroupProviderOption: a function that sets the provider's vertex count
func WithVertexCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexCount = count
	}
}

// WithInstanceCount sets the number of instances drawn.
//
// Parameters:
//   - count: the instance count, clamped to at least 1
//
// Returns:
//   - BindGroupProviderOption: a function that sets the provider's instance count
func WithInstanceCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.instanceCount = max(count, 1)
	}
}
