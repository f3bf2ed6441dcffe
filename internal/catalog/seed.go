package catalog

import "habitat/internal/api"

// seedTemplates is the built-in blueprint set available before any user
// definitions are loaded. Registering a template with the same id replaces
// the seed.
func seedTemplates() []*api.EnvironmentTemplate {
	return []*api.EnvironmentTemplate{
		{
			ID:          "web-development",
			Name:        "Web Development",
			Description: "Full-stack web development with Node.js, Python, and modern frameworks",
			Kind:        api.KindContainer,
			BaseConfig: map[string]interface{}{
				"base_image":          "node:18-bullseye",
				"additional_packages": []interface{}{"python3", "python3-pip", "git", "curl"},
			},
			Resources: api.ResourceShape{MemoryGi: 2, CPUMillis: 1000, StorageGi: 10},
			Scaling: api.ScalingPolicy{
				Enabled:      true,
				MinInstances: 1,
				MaxInstances: 3,
				Triggers:     []string{"cpu_usage > 80%", "memory_usage > 85%"},
			},
			Extensions: []string{
				"ms-vscode.vscode-typescript-next",
				"esbenp.prettier-vscode",
				"ms-python.python",
			},
			Dependencies: []string{"nodejs", "npm", "python3", "pip"},
			StartupActions: []string{
				"npm install -g typescript",
				"pip3 install --upgrade pip",
			},
			HealthProbes: []string{"curl -f http://localhost:3000/health"},
			CreatedBy:    "system",
			Tags:         []string{"web", "fullstack", "javascript", "python"},
		},
		{
			ID:          "ai-development",
			Name:        "AI/ML Development",
			Description: "AI development with Python, Jupyter, and accelerator support",
			Kind:        api.KindHybrid,
			BaseConfig: map[string]interface{}{
				"base_image":      "tensorflow/tensorflow:latest-gpu-jupyter",
				"gpu_enabled":     true,
				"jupyter_enabled": true,
			},
			Resources: api.ResourceShape{MemoryGi: 8, CPUMillis: 4000, StorageGi: 50, Accelerators: 1},
			Scaling: api.ScalingPolicy{
				Enabled:      true,
				MinInstances: 1,
				MaxInstances: 2,
				Triggers:     []string{"gpu_usage > 90%", "memory_usage > 90%"},
			},
			Extensions: []string{
				"ms-python.python",
				"ms-python.jupyter",
				"ms-python.pylance",
			},
			Dependencies: []string{"python3", "jupyter", "tensorflow", "numpy", "pandas"},
			StartupActions: []string{
				"pip install --upgrade tensorflow torch transformers",
				"jupyter notebook --generate-config",
			},
			HealthProbes: []string{`python -c "import tensorflow"`},
			CreatedBy:    "system",
			Tags:         []string{"ai", "ml", "python", "jupyter", "gpu"},
		},
		{
			ID:          "devops-playground",
			Name:        "DevOps Playground",
			Description: "DevOps tools with Docker, Kubernetes, Terraform, and cloud CLIs",
			Kind:        api.KindSandboxShell,
			BaseConfig: map[string]interface{}{
				"packages": []interface{}{
					"docker", "kubectl", "terraform", "ansible",
					"aws-cli", "google-cloud-sdk",
				},
			},
			Resources: api.ResourceShape{MemoryGi: 4, CPUMillis: 2000, StorageGi: 20},
			Scaling: api.ScalingPolicy{
				MinInstances: 1,
				MaxInstances: 1,
			},
			Extensions: []string{
				"ms-azuretools.vscode-docker",
				"hashicorp.terraform",
				"ms-kubernetes-tools.vscode-kubernetes-tools",
			},
			Dependencies: []string{"docker", "kubectl", "terraform", "ansible"},
			StartupActions: []string{
				"docker --version",
				"kubectl version --client",
			},
			HealthProbes: []string{"docker ps", "kubectl cluster-info"},
			CreatedBy:    "system",
			Tags:         []string{"devops", "docker", "kubernetes", "terraform", "cloud"},
		},
		{
			ID:          "rapid-prototype",
			Name:        "Rapid Prototyping",
			Description: "Quick prototyping with multiple languages and frameworks",
			Kind:        api.KindContainer,
			BaseConfig: map[string]interface{}{
				"base_image":     "ubuntu:22.04",
				"multi_language": true,
			},
			Resources: api.ResourceShape{MemoryGi: 3, CPUMillis: 1500, StorageGi: 15},
			Scaling: api.ScalingPolicy{
				Enabled:      true,
				MinInstances: 1,
				MaxInstances: 2,
				Triggers:     []string{"cpu_usage > 75%"},
			},
			Extensions: []string{
				"ms-vscode.vscode-typescript-next",
				"ms-python.python",
				"golang.go",
				"rust-lang.rust-analyzer",
			},
			Dependencies: []string{"nodejs", "python3", "go", "rust", "git"},
			StartupActions: []string{
				"apt-get update",
				"apt-get install -y curl git nodejs python3 golang rustc",
			},
			HealthProbes: []string{"node --version", "python3 --version", "go version"},
			CreatedBy:    "system",
			Tags:         []string{"prototype", "multi-language", "javascript", "python", "go", "rust"},
		},
	}
}
