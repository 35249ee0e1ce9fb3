//go:build !nogpu

package wgpu

import (
	// Vulkan is the default HAL backend.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)
