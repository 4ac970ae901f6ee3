package common

import (
	"testing"

	vk "github.com/goki/vulkan"
)

// TestQueueFamilyIndices covers completeness and the unique index list for shared and split families
func TestQueueFamilyIndices(t *testing.T) {
	empty := QueueFamilyIndices{}
	if empty.Complete() {
		t.Errorf("Empty indices should not be complete")
	}
	if len(empty.UniqueIndices()) != 0 {
		t.Errorf("Empty indices should have no unique indices: %v", empty.UniqueIndices())
	}
	if empty.String() != "QueueFamilies(graphics: unset, present: unset)" {
		t.Errorf("Unexpected string for empty indices: %s", empty)
	}

	graphics := uint32(2)
	half := QueueFamilyIndices{GraphicsFamily: &graphics}
	if half.Complete() || half.Shared() {
		t.Errorf("Indices without present family should be neither complete nor shared")
	}
	if u := half.UniqueIndices(); len(u) != 1 || u[0] != 2 {
		t.Errorf("Unexpected unique indices %v", u)
	}

	shared := NewQueueFamilyIndices(0, 0)
	if !shared.Complete() || !shared.Shared() {
		t.Errorf("Indices (0, 0) should be complete and shared")
	}
	if u := shared.UniqueIndices(); len(u) != 1 || u[0] != 0 {
		t.Errorf("Shared family should be listed once: %v", u)
	}

	split := NewQueueFamilyIndices(0, 1)
	if !split.Complete() || split.Shared() {
		t.Errorf("Indices (0, 1) should be complete and not shared")
	}
	if u := split.UniqueIndices(); len(u) != 2 || u[0] != 0 || u[1] != 1 {
		t.Errorf("Unexpected unique indices %v", u)
	}
	if split.String() != "QueueFamilies(graphics: 0, present: 1)" {
		t.Errorf("Unexpected string for split indices: %s", split)
	}
}

func TestQueueCreateInfos(t *testing.T) {
	infos := NewQueueFamilyIndices(3, 5).toQueueCreateInfos()
	if len(infos) != 2 {
		t.Fatalf("Expected one create info per family, got %d", len(infos))
	}
	for i, want := range []uint32{3, 5} {
		if infos[i].QueueFamilyIndex != want || infos[i].QueueCount != 1 {
			t.Errorf("Create info %d: family %d count %d, want family %d count 1", i, infos[i].QueueFamilyIndex, infos[i].QueueCount, want)
		}
	}
	if infos := NewQueueFamilyIndices(1, 1).toQueueCreateInfos(); len(infos) != 1 {
		t.Errorf("Shared family should need a single create info, got %d", len(infos))
	}
}

func TestAllOfAinB(t *testing.T) {
	b := []string{"VK_KHR_surface", "VK_KHR_xlib_surface", "VK_EXT_debug_utils"}
	if !AllOfAinB(nil, b) {
		t.Errorf("Empty list should be contained in any list")
	}
	if !AllOfAinB([]string{"VK_EXT_debug_utils", "VK_KHR_surface"}, b) {
		t.Errorf("Subset should be contained")
	}
	if AllOfAinB([]string{"VK_KHR_surface", "VK_KHR_swapchain"}, b) {
		t.Errorf("VK_KHR_swapchain is not in %v", b)
	}
}

func TestTerminatedStr(t *testing.T) {
	if TerminatedStr("") != "\x00" {
		t.Errorf("Empty string should become a single terminator")
	}
	if TerminatedStr("VK_KHR_swapchain") != "VK_KHR_swapchain\x00" {
		t.Errorf("Missing terminator was not appended")
	}
	if TerminatedStr("VK_KHR_swapchain\x00") != "VK_KHR_swapchain\x00" {
		t.Errorf("Terminated string should not change")
	}

	names := []string{"a", "b\x00"}
	terminated := TerminatedStrs(names)
	if terminated[0] != "a\x00" || terminated[1] != "b\x00" {
		t.Errorf("Unexpected terminated names %q", terminated)
	}
	if names[0] != "a" {
		t.Errorf("TerminatedStrs modified its input: %q", names)
	}
}

func TestToStringSurfaceValues(t *testing.T) {
	if s := ToStringFormat(vk.FormatB8g8r8a8Srgb); s != "B8G8R8A8_SRGB" {
		t.Errorf("Unexpected format name %s", s)
	}
	if s := ToStringFormat(vk.Format(1234)); s != "Format(1234)" {
		t.Errorf("Unknown format should print its value, got %s", s)
	}
	if s := ToStringColorSpace(vk.ColorSpaceSrgbNonlinear); s != "SRGB_NONLINEAR" {
		t.Errorf("Unexpected color space name %s", s)
	}
	if s := ToStringPresentMode(vk.PresentModeMailbox); s != "MAILBOX" {
		t.Errorf("Unexpected present mode name %s", s)
	}
	if s := ToStringPresentMode(vk.PresentMode(77)); s != "PresentMode(77)" {
		t.Errorf("Unknown present mode should print its value, got %s", s)
	}
	if s := ToStringSharingMode(vk.SharingModeConcurrent); s != "CONCURRENT" {
		t.Errorf("Unexpected sharing mode name %s", s)
	}
}

func TestToStringQueueFlags(t *testing.T) {
	flags := toStringQueueFlags(vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueTransferBit))
	if len(flags) != 2 || flags[0] != "VK_QUEUE_GRAPHICS_BIT" || flags[1] != "VK_QUEUE_TRANSFER_BIT" {
		t.Errorf("Unexpected queue flag names %v", flags)
	}
	if flags := toStringQueueFlags(0); len(flags) != 0 {
		t.Errorf("No flags should give no names, got %v", flags)
	}
}
