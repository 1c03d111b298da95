package task

import (
	"github.com/tsinghua-fib-lab/scenario-player/clock"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
)

// 服务名
const (
	PlaybackServiceName = "scenario.v1.PlaybackService"
)

// 过程路径
const (
	SetTimeProcedure          = "/" + PlaybackServiceName + "/SetTime"
	SetPlaybackSpeedProcedure = "/" + PlaybackServiceName + "/SetPlaybackSpeed"
	ResetProcedure            = "/" + PlaybackServiceName + "/Reset"
	GetActorPosesProcedure    = "/" + PlaybackServiceName + "/GetActorPoses"
	GetRoadNetworkProcedure   = "/" + PlaybackServiceName + "/GetRoadNetwork"
)

const (
	emptyType  = ".google.protobuf.Empty"
	doubleType = ".google.protobuf.DoubleValue"
	structType = ".google.protobuf.Struct"
)

// schema 服务描述，只使用protobuf标准类型，注册到全局描述符表供反射查询
var schema protoreflect.FileDescriptor

func init() {
	method := func(name, in, out string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(in),
			OutputType: proto.String(out),
		}
	}
	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("scenario/v1/player.proto"),
		Package: proto.String("scenario.v1"),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			"google/protobuf/empty.proto",
			"google/protobuf/struct.proto",
			"google/protobuf/wrappers.proto",
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: proto.String("PlaybackService"),
				Method: []*descriptorpb.MethodDescriptorProto{
					method("SetTime", doubleType, emptyType),
					method("SetPlaybackSpeed", doubleType, emptyType),
					method("Reset", emptyType, emptyType),
					method("GetActorPoses", structType, structType),
					method("GetRoadNetwork", emptyType, structType),
				},
			},
			{
				Name: proto.String("ClockService"),
				Method: []*descriptorpb.MethodDescriptorProto{
					method("Now", emptyType, doubleType),
				},
			},
		},
	}
	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		log.Panicf("build service descriptor: %v", err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		log.Panicf("register service descriptor: %v", err)
	}
	schema = fd
}

// ServiceNames 提供的全部RPC服务名
func ServiceNames() []string {
	return []string{PlaybackServiceName, clock.ServiceName}
}

// methodSchema 过程的方法描述
func methodSchema(service, name string) protoreflect.MethodDescriptor {
	return schema.Services().ByName(protoreflect.Name(service)).Methods().ByName(protoreflect.Name(name))
}
